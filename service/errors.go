package service

import "github.com/cockroachdb/errors"

var (
	// ErrNoActiveDocument is returned when an operation needs a loaded version
	ErrNoActiveDocument = errors.New("no active document")
	// ErrStaleVersion is returned when an issue references a replaced version
	ErrStaleVersion = errors.New("issue references a contract version that is no longer active")
	// ErrInvalidAnchor is returned when an anchor cannot be placed in the text
	ErrInvalidAnchor = errors.New("invalid anchor")
	// ErrInvalidIssue is returned for issues with malformed fields
	ErrInvalidIssue = errors.New("invalid issue")
	// ErrIssueNotFound is returned when no issue has the requested id
	ErrIssueNotFound = errors.New("issue not found")
	// ErrEditNotFound is returned when an issue has no edit at the index
	ErrEditNotFound = errors.New("suggested edit not found")
	// ErrInvalidEdit is returned for edits of an unknown type
	ErrInvalidEdit = errors.New("invalid suggested edit")
	// ErrExportDisabled is returned when no export sink is configured
	ErrExportDisabled = errors.New("export is not configured")
)
