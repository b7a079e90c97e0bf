package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/ryandumpert/flint/middleware"
	"github.com/ryandumpert/flint/model"
	"github.com/ryandumpert/flint/pkg/logger"
	"github.com/ryandumpert/flint/pkg/metrics"
	"github.com/ryandumpert/flint/pkg/pii"
	"github.com/ryandumpert/flint/service"
)

// DocumentHandler serves the caller's active contract version and its issues.
// Text leaves the server masked unless the caller asks for raw=true.
type DocumentHandler struct {
	registry *service.SessionRegistry
	scanner  *pii.Scanner
	metrics  *metrics.Metrics
	export   *service.ExportService
}

func NewDocumentHandler(registry *service.SessionRegistry, scanner *pii.Scanner, m *metrics.Metrics, export *service.ExportService) *DocumentHandler {
	return &DocumentHandler{
		registry: registry,
		scanner:  scanner,
		metrics:  m,
		export:   export,
	}
}

type LoadRequest struct {
	Text     *string                 `json:"text" binding:"required"`
	Metadata model.MetadataOverrides `json:"metadata"`
}

type StatusRequest struct {
	Status model.AnalysisStatus `json:"status" binding:"required"`
	Error  string               `json:"error"`
}

// SetIssuesRequest is the issue batch an analysis run posts
type SetIssuesRequest struct {
	Issues []model.Issue `json:"issues"`
}

// VersionView is a contract version as returned to clients
type VersionView struct {
	ID        string         `json:"id"`
	TextHash  string         `json:"text_hash"`
	Metadata  model.Metadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	Text      string         `json:"text"`
	Masked    bool           `json:"masked"`
	PII       pii.Summary    `json:"pii"`
}

// DocumentView is the session state as returned to clients
type DocumentView struct {
	Version         VersionView          `json:"version"`
	Status          model.AnalysisStatus `json:"status"`
	AnalysisError   string               `json:"analysis_error,omitempty"`
	IssueCount      int                  `json:"issue_count"`
	SelectedIssueID string               `json:"selected_issue_id,omitempty"`
}

func (h *DocumentHandler) versionView(c *gin.Context, v model.ContractVersion, raw bool) VersionView {
	dets := h.scanner.Detect(v.ExtractedText)
	h.metrics.RecordScan("document", dets)
	sum := pii.Summarized(dets)
	logger.Debug(c.Request.Context(), "document scanned", "version_id", v.ID, logger.PIIAttr(sum))

	view := VersionView{
		ID:        v.ID,
		TextHash:  v.TextHash,
		Metadata:  v.Metadata,
		CreatedAt: v.CreatedAt,
		Text:      v.ExtractedText,
		PII:       sum,
	}
	if !raw {
		view.Text = h.scanner.Mask(v.ExtractedText)
		view.Masked = true
	}
	return view
}

// lookup returns the caller's store, writing 404 if the session has none
func (h *DocumentHandler) lookup(c *gin.Context) (*service.DocumentStore, bool) {
	store, ok := h.registry.Lookup(middleware.GetSessionKey(c))
	if !ok {
		writeError(c, service.ErrNoActiveDocument)
		return nil, false
	}
	return store, true
}

// Load replaces the session's active version
func (h *DocumentHandler) Load(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: text is required"})
		return
	}

	store := h.registry.Get(middleware.GetSessionKey(c))
	v := store.LoadDocument(*req.Text, req.Metadata)
	if h.metrics != nil {
		h.metrics.DocumentsLoadedTotal.Inc()
	}

	view := h.versionView(c, v, isTrue(c.Query("raw")))
	logger.Info(c.Request.Context(), "document loaded",
		"version_id", v.ID,
		"size_bytes", v.Metadata.SizeBytes,
		logger.PIIAttr(view.PII),
	)

	status, _ := store.Status()
	c.JSON(http.StatusCreated, DocumentView{Version: view, Status: status})
}

// Get returns the active version with session state
func (h *DocumentHandler) Get(c *gin.Context) {
	store, ok := h.lookup(c)
	if !ok {
		return
	}
	snap := store.Snapshot()
	if snap.Version == nil {
		writeError(c, service.ErrNoActiveDocument)
		return
	}

	c.JSON(http.StatusOK, DocumentView{
		Version:         h.versionView(c, *snap.Version, isTrue(c.Query("raw"))),
		Status:          snap.Status,
		AnalysisError:   snap.AnalysisError,
		IssueCount:      len(snap.Issues),
		SelectedIssueID: snap.SelectedIssueID,
	})
}

// Clear drops the session and everything it holds
func (h *DocumentHandler) Clear(c *gin.Context) {
	key := middleware.GetSessionKey(c)
	h.registry.Drop(key)
	logger.Info(c.Request.Context(), "document cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Document cleared"})
}

// SetStatus records analysis progress
func (h *DocumentHandler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: unknown status"})
		return
	}

	store := h.registry.Get(middleware.GetSessionKey(c))
	if req.Status == model.StatusError {
		store.SetAnalysisError(req.Error)
	} else {
		store.SetAnalysisStatus(req.Status)
	}

	status, msg := store.Status()
	logger.Info(c.Request.Context(), "analysis status changed", "status", status)
	c.JSON(http.StatusOK, gin.H{"status": status, "analysis_error": msg})
}

// SetIssues replaces the issue list of the active version
func (h *DocumentHandler) SetIssues(c *gin.Context) {
	var req SetIssuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	store, ok := h.lookup(c)
	if !ok {
		h.countIssues("no_document")
		return
	}
	if err := store.SetIssues(req.Issues); err != nil {
		h.countIssues(issueResult(err))
		logger.Warn(c.Request.Context(), "issue batch rejected", "count", len(req.Issues), "error", err)
		writeError(c, err)
		return
	}
	h.countIssues("accepted")

	issues := store.Issues()
	logger.Info(c.Request.Context(), "issue batch accepted", "count", len(issues))
	c.JSON(http.StatusOK, gin.H{"issues": h.maybeMask(c, issues)})
}

func (h *DocumentHandler) countIssues(result string) {
	if h.metrics != nil {
		h.metrics.IssuesIngestedTotal.WithLabelValues(result).Inc()
	}
}

func issueResult(err error) string {
	switch {
	case errors.Is(err, service.ErrStaleVersion):
		return "stale"
	case errors.Is(err, service.ErrNoActiveDocument):
		return "no_document"
	default:
		return "invalid"
	}
}

// ListIssues returns the issues, optionally grouped by severity or category
func (h *DocumentHandler) ListIssues(c *gin.Context) {
	store, ok := h.lookup(c)
	if !ok {
		return
	}
	if _, ok := store.Version(); !ok {
		writeError(c, service.ErrNoActiveDocument)
		return
	}

	issues := h.maybeMask(c, store.Issues())
	switch c.Query("group") {
	case "":
		c.JSON(http.StatusOK, gin.H{"issues": issues})
	case "severity":
		c.JSON(http.StatusOK, gin.H{"groups": service.GroupBySeverity(issues)})
	case "category":
		c.JSON(http.StatusOK, gin.H{"groups": service.GroupByCategory(issues)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group must be severity or category"})
	}
}

// GetIssue returns one issue
func (h *DocumentHandler) GetIssue(c *gin.Context) {
	store, ok := h.lookup(c)
	if !ok {
		return
	}
	issue, err := store.Issue(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if isTrue(c.Query("masked")) {
		issue = service.MaskIssue(h.scanner, issue)
	}
	c.JSON(http.StatusOK, issue)
}

// SelectIssue focuses an issue
func (h *DocumentHandler) SelectIssue(c *gin.Context) {
	store, ok := h.lookup(c)
	if !ok {
		return
	}
	issueID := c.Param("id")
	if err := store.SelectIssue(issueID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_issue_id": issueID})
}

// PreviewEdit renders the text with one suggested edit applied
func (h *DocumentHandler) PreviewEdit(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edit index must be a number"})
		return
	}
	store, ok := h.lookup(c)
	if !ok {
		return
	}

	preview, err := store.PreviewEdit(c.Param("id"), index)
	if err != nil {
		writeError(c, err)
		return
	}

	raw := isTrue(c.Query("raw"))
	if !raw {
		preview = h.scanner.Mask(preview)
	}
	c.JSON(http.StatusOK, gin.H{"preview": preview, "masked": !raw})
}

// Export uploads a masked report of the session to object storage
func (h *DocumentHandler) Export(c *gin.Context) {
	if !h.export.Enabled() {
		writeError(c, service.ErrExportDisabled)
		return
	}
	store, ok := h.lookup(c)
	if !ok {
		return
	}

	key := middleware.GetSessionKey(c)
	url, err := h.export.Export(c.Request.Context(), key, store.Snapshot())
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Info(c.Request.Context(), "report exported")
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *DocumentHandler) maybeMask(c *gin.Context, issues []model.Issue) []model.Issue {
	if isTrue(c.Query("masked")) {
		return service.MaskIssues(h.scanner, issues)
	}
	return issues
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// writeError maps service errors to status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoActiveDocument),
		errors.Is(err, service.ErrIssueNotFound),
		errors.Is(err, service.ErrEditNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStaleVersion):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidAnchor),
		errors.Is(err, service.ErrInvalidIssue),
		errors.Is(err, service.ErrInvalidEdit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrExportDisabled):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Routes mounts the document endpoints on an authenticated group
func (h *DocumentHandler) Routes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.POST("", h.Load)
	docs.GET("/current", h.Get)
	docs.DELETE("/current", h.Clear)
	docs.PUT("/current/status", h.SetStatus)
	docs.PUT("/current/issues", h.SetIssues)
	docs.GET("/current/issues", h.ListIssues)
	docs.GET("/current/issues/:id", h.GetIssue)
	docs.POST("/current/issues/:id/select", h.SelectIssue)
	docs.POST("/current/issues/:id/edits/:index/preview", h.PreviewEdit)
	docs.POST("/current/export", h.Export)
}
