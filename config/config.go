package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ryandumpert/flint/pkg/pii"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	PII       PIIConfig       `yaml:"pii"`
	Minio     MinioConfig     `yaml:"minio"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig bounds the in-memory session registry
type StoreConfig struct {
	MaxSessions int   `yaml:"max_sessions"` // 0 = unlimited
	NodeID      int64 `yaml:"node_id"`      // snowflake node for version ids
}

// PIIConfig selects which built-in patterns the scanner runs; empty = all
type PIIConfig struct {
	Patterns []string `yaml:"patterns"`
}

// MinioConfig configures the masked export sink; an empty endpoint disables it
type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rate limit window as a duration
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Load reads the YAML file at path, applies FLINT_* environment overrides
// and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if _, err := pii.Select(cfg.PII.Patterns); err != nil {
		return nil, fmt.Errorf("invalid pii config: %w", err)
	}

	return &cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// not an error; variables already set are kept.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Path returns the config file path from FLINT_CONFIG, or config.yaml
func Path() string {
	if p := strings.TrimSpace(os.Getenv("FLINT_CONFIG")); p != "" {
		return p
	}
	return "config.yaml"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Store.MaxSessions < 0 {
		cfg.Store.MaxSessions = 0
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = "flint-exports"
	}
	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
}

// applyEnv overrides file values with FLINT_* variables
func applyEnv(cfg *Config) error {
	if v := env("FLINT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FLINT_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := env("FLINT_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := env("FLINT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("FLINT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := env("FLINT_PII_PATTERNS"); v != "" {
		cfg.PII.Patterns = strings.Split(v, ",")
	}
	if v := env("FLINT_MINIO_ENDPOINT"); v != "" {
		cfg.Minio.Endpoint = v
	}
	if v := env("FLINT_MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := env("FLINT_MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
