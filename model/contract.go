package model

import (
	"time"
)

// ContractVersion is one immutable snapshot of extracted document text
type ContractVersion struct {
	ID            string    `json:"id"`
	ExtractedText string    `json:"extracted_text"`
	TextHash      string    `json:"text_hash"`
	Metadata      Metadata  `json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
}

// Metadata describes where a contract version came from
type Metadata struct {
	Title          string `json:"title"`
	Counterparty   string `json:"counterparty,omitempty"`
	Jurisdiction   string `json:"jurisdiction,omitempty"`
	ContractType   string `json:"contract_type,omitempty"`
	SourceFilename string `json:"source_filename"`
	MimeType       string `json:"mime_type"`
	SizeBytes      int64  `json:"size_bytes"`
}

// MetadataOverrides are caller-supplied metadata fields; nil means "use the default"
type MetadataOverrides struct {
	Title          *string `json:"title,omitempty"`
	Counterparty   *string `json:"counterparty,omitempty"`
	Jurisdiction   *string `json:"jurisdiction,omitempty"`
	ContractType   *string `json:"contract_type,omitempty"`
	SourceFilename *string `json:"source_filename,omitempty"`
	MimeType       *string `json:"mime_type,omitempty"`
	SizeBytes      *int64  `json:"size_bytes,omitempty"`
}

// Metadata defaults
const (
	DefaultTitle    = "Untitled contract"
	DefaultMimeType = "text/plain"
)

// AnalysisStatus drives external progress UI
type AnalysisStatus string

// AnalysisStatus constants
const (
	StatusIdle       AnalysisStatus = "idle"
	StatusUploading  AnalysisStatus = "uploading"
	StatusExtracting AnalysisStatus = "extracting"
	StatusAnalyzing  AnalysisStatus = "analyzing"
	StatusComplete   AnalysisStatus = "complete"
	StatusError      AnalysisStatus = "error"
)

// AnalysisStatuses lists every status in pipeline order
var AnalysisStatuses = []AnalysisStatus{
	StatusIdle, StatusUploading, StatusExtracting, StatusAnalyzing, StatusComplete, StatusError,
}

// Valid reports whether s is a known status
func (s AnalysisStatus) Valid() bool {
	for _, v := range AnalysisStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends an analysis run
func (s AnalysisStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}
