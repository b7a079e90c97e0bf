package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ryandumpert/flint/pkg/pii"
)

func TestRecordScan(t *testing.T) {
	m := New()

	m.RecordScan("mask", pii.Detect("SSN: 123-45-6789, Email: john@example.com"))
	m.RecordScan("mask", nil)

	if got := testutil.ToFloat64(m.PIIScansTotal.WithLabelValues("mask")); got != 2 {
		t.Errorf("Expected 2 scans, got %v", got)
	}
	if got := testutil.ToFloat64(m.PIIDetectionsTotal.WithLabelValues(pii.TypeSSN)); got != 1 {
		t.Errorf("Expected 1 ssn detection, got %v", got)
	}
}

func TestRecordScanNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordScan("detect", pii.Detect("SSN: 123-45-6789"))
	// Should not panic
}

func TestNewTwice(t *testing.T) {
	// private registries must not collide
	New()
	New()
}

func TestHandler(t *testing.T) {
	m := New()
	m.DocumentsLoadedTotal.Inc()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "flint_documents_loaded_total 1") {
		t.Error("Expected documents counter in output")
	}
}
