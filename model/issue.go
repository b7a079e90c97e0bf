package model

// Severity ranks an issue for display emphasis
type Severity string

// Severity constants, lowest first
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity, lowest first
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

// RiskType classifies the kind of exposure an issue represents
type RiskType string

// RiskType constants
const (
	RiskLegal       RiskType = "legal"
	RiskCommercial  RiskType = "commercial"
	RiskOperational RiskType = "operational"
	RiskSecurity    RiskType = "security"
	RiskPrivacy     RiskType = "privacy"
	RiskCompliance  RiskType = "compliance"
)

// EditType is the kind of change a suggested edit makes
type EditType string

// EditType constants
const (
	EditAdd    EditType = "add"
	EditRemove EditType = "remove"
	EditChange EditType = "change"
)

// Anchor is a character span [Start, End) into a version's extracted text.
// Fingerprint hashes the anchored substring; ContextWindow is how many
// characters either side may be searched when the quote drifts.
type Anchor struct {
	Start         int    `json:"start" jsonschema:"minimum=0"`
	End           int    `json:"end" jsonschema:"minimum=0"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	ContextWindow int    `json:"context_window,omitempty" jsonschema:"minimum=0"`
}

// Len returns the anchored length in characters
func (a Anchor) Len() int {
	return a.End - a.Start
}

// SuggestedEdit is one proposed change to the anchored text
type SuggestedEdit struct {
	Type            EditType `json:"type" jsonschema:"enum=add,enum=remove,enum=change"`
	ProposedText    string   `json:"proposed_text,omitempty"`
	ReplacementText string   `json:"replacement_text,omitempty"`
	Target          Anchor   `json:"target"`
	Value           string   `json:"value,omitempty"`
	Tradeoffs       string   `json:"tradeoffs,omitempty"`
}

// Issue is one analysis finding anchored to a contract version
type Issue struct {
	ID                string          `json:"id"`
	ContractVersionID string          `json:"contract_version_id" jsonschema:"required"`
	Title             string          `json:"title" jsonschema:"required"`
	Category          string          `json:"category"`
	Severity          Severity        `json:"severity" jsonschema:"enum=low,enum=medium,enum=high,enum=critical"`
	RiskType          RiskType        `json:"risk_type" jsonschema:"enum=legal,enum=commercial,enum=operational,enum=security,enum=privacy,enum=compliance"`
	Confidence        float64         `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Anchor            Anchor          `json:"anchor"`
	Quote             string          `json:"quote"`
	WhyConcern        string          `json:"why_concern"`
	SuggestedEdits    []SuggestedEdit `json:"suggested_edits,omitempty"`
	DiscussionPrompts []string        `json:"discussion_prompts,omitempty"`
}
