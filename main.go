package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ryandumpert/flint/config"
	"github.com/ryandumpert/flint/handler"
	"github.com/ryandumpert/flint/middleware"
	"github.com/ryandumpert/flint/pkg/id"
	"github.com/ryandumpert/flint/pkg/logger"
	"github.com/ryandumpert/flint/pkg/metrics"
	"github.com/ryandumpert/flint/pkg/pii"
	"github.com/ryandumpert/flint/service"
)

// app holds the long-lived components the router is built from
type app struct {
	cfg      *config.Config
	scanner  *pii.Scanner
	metrics  *metrics.Metrics
	registry *service.SessionRegistry
	export   *service.ExportService
	schema   *handler.SchemaHandler
}

func newApp(cfg *config.Config) (*app, error) {
	if err := id.Init(cfg.Store.NodeID); err != nil {
		return nil, fmt.Errorf("init id generator: %w", err)
	}

	patterns, err := pii.Select(cfg.PII.Patterns)
	if err != nil {
		return nil, err
	}
	scanner := pii.New(patterns...)

	m := metrics.New()

	export, err := service.NewExportService(&cfg.Minio, scanner)
	if err != nil {
		return nil, err
	}

	schema, err := handler.NewSchemaHandler()
	if err != nil {
		return nil, fmt.Errorf("build issue schema: %w", err)
	}

	return &app{
		cfg:      cfg,
		scanner:  scanner,
		metrics:  m,
		registry: service.NewSessionRegistry(&cfg.Store, m),
		export:   export,
		schema:   schema,
	}, nil
}

func main() {
	config.LoadEnv()

	cfg, err := config.Load(config.Path())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	slog.Info("pii scanner ready", "patterns", a.scanner.Patterns())

	if a.export.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.export.EnsureBucket(ctx); err != nil {
			slog.Warn("export bucket unavailable", "bucket", cfg.Minio.Bucket, "error", err)
		}
		cancel()
	} else {
		slog.Info("export disabled, no minio endpoint configured")
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(a)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

func newRouter(a *app) *gin.Engine {
	authHandler := handler.NewAuthHandler(a.cfg)
	piiHandler := handler.NewPIIHandler(a.scanner, a.metrics)
	documentHandler := handler.NewDocumentHandler(a.registry, a.scanner, a.metrics, a.export)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger(a.scanner, a.metrics))
	router.Use(corsMiddleware())
	router.Use(noStoreMiddleware())
	router.Use(middleware.RateLimit(a.cfg.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"sessions":  a.registry.Count(),
			"export":    a.export.Enabled(),
		})
	})
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/schema/issues", a.schema.Issues)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&a.cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/pii/detect", piiHandler.Detect)
		protected.POST("/pii/mask", piiHandler.Mask)
		protected.POST("/pii/summary", piiHandler.Summary)
		documentHandler.Routes(protected)
	}

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// noStoreMiddleware keeps contract text out of shared caches
func noStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
