package service

import (
	"github.com/ryandumpert/flint/model"
	"github.com/ryandumpert/flint/pkg/pii"
)

// MaskIssue returns a copy of issue with every free-text field passed through
// the scanner. Anchors are left as they are; they index the original text.
func MaskIssue(scanner *pii.Scanner, issue model.Issue) model.Issue {
	out := cloneIssue(issue)
	out.Quote = scanner.Mask(out.Quote)
	out.WhyConcern = scanner.Mask(out.WhyConcern)
	for i := range out.SuggestedEdits {
		e := &out.SuggestedEdits[i]
		e.ProposedText = scanner.Mask(e.ProposedText)
		e.ReplacementText = scanner.Mask(e.ReplacementText)
		e.Value = scanner.Mask(e.Value)
	}
	for i, p := range out.DiscussionPrompts {
		out.DiscussionPrompts[i] = scanner.Mask(p)
	}
	return out
}

// MaskIssues applies MaskIssue to each issue
func MaskIssues(scanner *pii.Scanner, issues []model.Issue) []model.Issue {
	out := make([]model.Issue, len(issues))
	for i, issue := range issues {
		out[i] = MaskIssue(scanner, issue)
	}
	return out
}
