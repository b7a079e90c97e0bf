package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"
)

// SchemaHandler serves the JSON Schema that analysis producers validate
// issue batches against. The schema is generated once at startup.
type SchemaHandler struct {
	issues []byte
}

func NewSchemaHandler() (*SchemaHandler, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&SetIssuesRequest{})
	schema.Title = "Issue batch"
	schema.Description = "Issues for the active contract version. Anchors are character offsets into the extracted text."

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return &SchemaHandler{issues: data}, nil
}

// Issues returns the issue batch schema
func (h *SchemaHandler) Issues(c *gin.Context) {
	c.Data(http.StatusOK, "application/schema+json", h.issues)
}
