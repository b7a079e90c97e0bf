package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ryandumpert/flint/pkg/logger"
	"github.com/ryandumpert/flint/pkg/metrics"
	"github.com/ryandumpert/flint/pkg/pii"
)

// PIIHandler exposes the scanner over HTTP
type PIIHandler struct {
	scanner *pii.Scanner
	metrics *metrics.Metrics
}

func NewPIIHandler(scanner *pii.Scanner, m *metrics.Metrics) *PIIHandler {
	return &PIIHandler{scanner: scanner, metrics: m}
}

// TextRequest carries text to scan. Empty text is allowed.
type TextRequest struct {
	Text *string `json:"text" binding:"required"`
}

func (h *PIIHandler) bind(c *gin.Context) (string, bool) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: text is required"})
		return "", false
	}
	return *req.Text, true
}

func (h *PIIHandler) scan(c *gin.Context, operation, text string) []pii.Detection {
	dets := h.scanner.Detect(text)
	h.metrics.RecordScan(operation, dets)
	logger.Debug(c.Request.Context(), "pii scan", "operation", operation, logger.PIIAttr(pii.Summarized(dets)))
	return dets
}

// Detect returns every detection in the text
func (h *PIIHandler) Detect(c *gin.Context) {
	text, ok := h.bind(c)
	if !ok {
		return
	}
	dets := h.scan(c, "detect", text)
	c.JSON(http.StatusOK, gin.H{
		"detections": dets,
		"summary":    pii.Summarized(dets),
	})
}

// Mask returns the display rendering of the text
func (h *PIIHandler) Mask(c *gin.Context) {
	text, ok := h.bind(c)
	if !ok {
		return
	}
	dets := h.scan(c, "mask", text)
	c.JSON(http.StatusOK, gin.H{
		"masked":  h.scanner.Mask(text),
		"summary": pii.Summarized(dets),
	})
}

// Summary returns counts and type names only
func (h *PIIHandler) Summary(c *gin.Context) {
	text, ok := h.bind(c)
	if !ok {
		return
	}
	sum := pii.Summarized(h.scan(c, "summary", text))
	c.JSON(http.StatusOK, gin.H{
		"summary":                sum,
		"contains_high_severity": sum.HighSeverity > 0,
	})
}
