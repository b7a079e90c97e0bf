package service

import (
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/ryandumpert/flint/model"
	"github.com/ryandumpert/flint/pkg/id"
)

// DocumentStore holds one session's active contract version and the issues
// anchored into it. All state is guarded by a single lock, so a reader never
// observes issues belonging to a version other than the active one.
type DocumentStore struct {
	mu sync.RWMutex

	version       *model.ContractVersion
	issues        []model.Issue
	status        model.AnalysisStatus
	analysisError string
	selectedIssue string

	now func() time.Time
}

// Snapshot is a consistent copy of a store's state
type Snapshot struct {
	Version         *model.ContractVersion `json:"version"`
	Issues          []model.Issue          `json:"issues"`
	Status          model.AnalysisStatus   `json:"status"`
	AnalysisError   string                 `json:"analysis_error,omitempty"`
	SelectedIssueID string                 `json:"selected_issue_id,omitempty"`
}

// NewDocumentStore creates an empty, idle store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		status: model.StatusIdle,
		now:    time.Now,
	}
}

// LoadDocument replaces the active version with a new one built from text
// and resets issues, selection and analysis status.
func (s *DocumentStore) LoadDocument(text string, overrides model.MetadataOverrides) model.ContractVersion {
	v := model.ContractVersion{
		ID:            id.New("cv_"),
		ExtractedText: text,
		TextHash:      Fingerprint(text),
		Metadata:      mergeMetadata(text, overrides),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v.CreatedAt = s.now()
	s.version = &v
	s.issues = nil
	s.status = model.StatusIdle
	s.analysisError = ""
	s.selectedIssue = ""
	return v
}

func mergeMetadata(text string, o model.MetadataOverrides) model.Metadata {
	m := model.Metadata{
		Title:     model.DefaultTitle,
		MimeType:  model.DefaultMimeType,
		SizeBytes: int64(len(text)),
	}
	if o.SourceFilename != nil {
		m.SourceFilename = *o.SourceFilename
		if m.SourceFilename != "" {
			m.Title = m.SourceFilename
		}
	}
	if o.Title != nil && *o.Title != "" {
		m.Title = *o.Title
	}
	if o.Counterparty != nil {
		m.Counterparty = *o.Counterparty
	}
	if o.Jurisdiction != nil {
		m.Jurisdiction = *o.Jurisdiction
	}
	if o.ContractType != nil {
		m.ContractType = *o.ContractType
	}
	if o.MimeType != nil && *o.MimeType != "" {
		m.MimeType = *o.MimeType
	}
	if o.SizeBytes != nil {
		m.SizeBytes = *o.SizeBytes
	}
	return m
}

// SetIssues replaces the issue list of the active version. The batch is
// rejected as a whole if any issue references another version, carries an
// anchor that cannot be placed in the text, or is otherwise malformed.
// Anchors whose quote drifted within their context window are moved;
// missing ids, quotes and fingerprints are filled in.
func (s *DocumentStore) SetIssues(issues []model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == nil {
		return ErrNoActiveDocument
	}

	chars := []rune(s.version.ExtractedText)
	seen := make(map[string]bool, len(issues))
	accepted := make([]model.Issue, 0, len(issues))
	for i, in := range issues {
		issue := cloneIssue(in)
		if issue.ContractVersionID != s.version.ID {
			return errors.Wrapf(ErrStaleVersion, "issue %d references %q, active is %q", i, issue.ContractVersionID, s.version.ID)
		}
		if err := checkIssueFields(issue); err != nil {
			return errors.Wrapf(err, "issue %d", i)
		}

		if issue.Quote == "" && issue.Anchor.Start >= 0 && issue.Anchor.Start <= issue.Anchor.End && issue.Anchor.End <= len(chars) {
			issue.Quote = string(chars[issue.Anchor.Start:issue.Anchor.End])
		}
		anchor, err := reanchor(chars, issue.Anchor, issue.Quote)
		if err != nil {
			return errors.Wrapf(err, "issue %d", i)
		}
		issue.Anchor = anchor

		if issue.ID == "" {
			issue.ID = uuid.New().String()
		}
		if seen[issue.ID] {
			return errors.Wrapf(ErrInvalidIssue, "duplicate issue id %q", issue.ID)
		}
		seen[issue.ID] = true

		accepted = append(accepted, issue)
	}

	s.issues = accepted
	if !seen[s.selectedIssue] {
		s.selectedIssue = ""
	}
	return nil
}

func checkIssueFields(issue model.Issue) error {
	if !issue.Severity.Valid() {
		return errors.Wrapf(ErrInvalidIssue, "unknown severity %q", issue.Severity)
	}
	if math.IsNaN(issue.Confidence) || issue.Confidence < 0 || issue.Confidence > 1 {
		return errors.Wrapf(ErrInvalidIssue, "confidence %v outside [0, 1]", issue.Confidence)
	}
	return nil
}

// SetAnalysisStatus sets the progress status. Any status may follow any other.
func (s *DocumentStore) SetAnalysisStatus(status model.AnalysisStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if status != model.StatusError {
		s.analysisError = ""
	}
}

// SetAnalysisError moves the store to the error status with a message
func (s *DocumentStore) SetAnalysisError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = model.StatusError
	s.analysisError = msg
}

// Clear drops the active version and all issues
func (s *DocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = nil
	s.issues = nil
	s.status = model.StatusIdle
	s.analysisError = ""
	s.selectedIssue = ""
}

// Version returns the active version
func (s *DocumentStore) Version() (model.ContractVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == nil {
		return model.ContractVersion{}, false
	}
	return *s.version, true
}

// Issues returns a copy of the issue list
func (s *DocumentStore) Issues() []model.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneIssues(s.issues)
}

// Status returns the analysis status and error message
func (s *DocumentStore) Status() (model.AnalysisStatus, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.analysisError
}

// Snapshot returns the whole state under one read lock
func (s *DocumentStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Issues:          cloneIssues(s.issues),
		Status:          s.status,
		AnalysisError:   s.analysisError,
		SelectedIssueID: s.selectedIssue,
	}
	if s.version != nil {
		v := *s.version
		snap.Version = &v
	}
	return snap
}

// HasContract reports whether a version with non-empty text is active
func (s *DocumentStore) HasContract() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version != nil && s.version.ExtractedText != ""
}

// HasIssues reports whether any issue is set
func (s *DocumentStore) HasIssues() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.issues) > 0
}

// IssuesBySeverity groups issues by severity. Every severity is present.
func (s *DocumentStore) IssuesBySeverity() map[model.Severity][]model.Issue {
	return GroupBySeverity(s.Issues())
}

// IssuesByCategory groups issues by their category string
func (s *DocumentStore) IssuesByCategory() map[string][]model.Issue {
	return GroupByCategory(s.Issues())
}

// GroupBySeverity groups issues under all four severities, keeping order
func GroupBySeverity(issues []model.Issue) map[model.Severity][]model.Issue {
	out := make(map[model.Severity][]model.Issue, len(model.Severities))
	for _, sev := range model.Severities {
		out[sev] = []model.Issue{}
	}
	for _, issue := range issues {
		out[issue.Severity] = append(out[issue.Severity], issue)
	}
	return out
}

// GroupByCategory groups issues by category, keeping order
func GroupByCategory(issues []model.Issue) map[string][]model.Issue {
	out := make(map[string][]model.Issue)
	for _, issue := range issues {
		out[issue.Category] = append(out[issue.Category], issue)
	}
	return out
}

// Issue returns the issue with the given id
func (s *DocumentStore) Issue(issueID string) (model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(issueID)
}

func (s *DocumentStore) findLocked(issueID string) (model.Issue, error) {
	if s.version == nil {
		return model.Issue{}, ErrNoActiveDocument
	}
	for _, issue := range s.issues {
		if issue.ID == issueID {
			return cloneIssue(issue), nil
		}
	}
	return model.Issue{}, errors.Wrapf(ErrIssueNotFound, "id %q", issueID)
}

// SelectIssue marks an issue as the focused one
func (s *DocumentStore) SelectIssue(issueID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findLocked(issueID); err != nil {
		return err
	}
	s.selectedIssue = issueID
	return nil
}

// SelectedIssue returns the focused issue, if any
func (s *DocumentStore) SelectedIssue() (model.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedIssue == "" {
		return model.Issue{}, false
	}
	issue, err := s.findLocked(s.selectedIssue)
	return issue, err == nil
}

// PreviewEdit applies the issue's suggested edit at index to a copy of the
// active text. The stored version is not changed.
func (s *DocumentStore) PreviewEdit(issueID string, index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, err := s.findLocked(issueID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(issue.SuggestedEdits) {
		return "", errors.Wrapf(ErrEditNotFound, "issue %q has %d edits, asked for %d", issueID, len(issue.SuggestedEdits), index)
	}
	return PreviewEdit(s.version.ExtractedText, issue.SuggestedEdits[index])
}

func cloneIssues(in []model.Issue) []model.Issue {
	out := make([]model.Issue, len(in))
	for i, issue := range in {
		out[i] = cloneIssue(issue)
	}
	return out
}

func cloneIssue(issue model.Issue) model.Issue {
	if issue.SuggestedEdits != nil {
		issue.SuggestedEdits = append([]model.SuggestedEdit(nil), issue.SuggestedEdits...)
	}
	if issue.DiscussionPrompts != nil {
		issue.DiscussionPrompts = append([]string(nil), issue.DiscussionPrompts...)
	}
	return issue
}
