package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSchemaIssues(t *testing.T) {
	h, err := NewSchemaHandler()
	if err != nil {
		t.Fatalf("Failed to build schema: %v", err)
	}

	router := gin.New()
	router.GET("/schema/issues", h.Issues)

	req := httptest.NewRequest("GET", "/schema/issues", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var schema struct {
		Type                 string         `json:"type"`
		Properties           map[string]any `json:"properties"`
		AdditionalProperties bool           `json:"additionalProperties"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &schema); err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("Expected object schema, got %q", schema.Type)
	}
	if _, ok := schema.Properties["issues"]; !ok {
		t.Error("Expected issues property")
	}
	if schema.AdditionalProperties {
		t.Error("Expected additional properties to be rejected")
	}
}
