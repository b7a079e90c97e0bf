package service

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/ryandumpert/flint/model"
)

// Fingerprint returns a fast, non-cryptographic hash of s as 16 hex digits.
// It identifies text for caching and drift detection only.
func Fingerprint(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// Reanchor places quote in text near the anchor's original position.
// If the quote is still at [Start, End) the anchor is returned with its
// fingerprint filled in. Otherwise the occurrence of quote closest to Start
// within ContextWindow characters either side is used. A fingerprint that
// does not match quote is rejected.
func Reanchor(text string, a model.Anchor, quote string) (model.Anchor, error) {
	return reanchor([]rune(text), a, quote)
}

func reanchor(chars []rune, a model.Anchor, quote string) (model.Anchor, error) {
	if a.Start < 0 || a.End < a.Start || a.ContextWindow < 0 {
		return a, errors.Wrapf(ErrInvalidAnchor, "span [%d, %d)", a.Start, a.End)
	}
	fp := Fingerprint(quote)
	if a.Fingerprint != "" && a.Fingerprint != fp {
		return a, errors.Wrap(ErrInvalidAnchor, "fingerprint does not match quote")
	}

	q := []rune(quote)
	if a.End <= len(chars) && string(chars[a.Start:a.End]) == quote {
		a.Fingerprint = fp
		return a, nil
	}
	if len(q) == 0 || a.ContextWindow == 0 {
		return a, errors.Wrapf(ErrInvalidAnchor, "quote not found at [%d, %d)", a.Start, a.End)
	}

	lo := max(a.Start-a.ContextWindow, 0)
	hi := min(a.End+a.ContextWindow, len(chars))
	best := -1
	for i := lo; i+len(q) <= hi; i++ {
		if !runesEqual(chars[i:i+len(q)], q) {
			continue
		}
		if best < 0 || abs(i-a.Start) < abs(best-a.Start) {
			best = i
		}
	}
	if best < 0 {
		return a, errors.Wrapf(ErrInvalidAnchor, "quote not found within %d characters of %d", a.ContextWindow, a.Start)
	}

	a.Start = best
	a.End = best + len(q)
	a.Fingerprint = fp
	return a, nil
}

// PreviewEdit applies one suggested edit to a copy of text. add inserts the
// proposed text at the end of the target, remove deletes the target, change
// replaces it.
func PreviewEdit(text string, edit model.SuggestedEdit) (string, error) {
	chars := []rune(text)
	t := edit.Target
	if t.Start < 0 || t.End < t.Start || t.End > len(chars) {
		return "", errors.Wrapf(ErrInvalidAnchor, "edit target [%d, %d) outside text of %d characters", t.Start, t.End, len(chars))
	}

	var insert string
	start, end := t.Start, t.End
	switch edit.Type {
	case model.EditAdd:
		insert = firstNonEmpty(edit.ProposedText, edit.ReplacementText)
		start = t.End
	case model.EditRemove:
	case model.EditChange:
		insert = firstNonEmpty(edit.ReplacementText, edit.ProposedText)
	default:
		return "", errors.Wrapf(ErrInvalidEdit, "type %q", edit.Type)
	}

	return string(chars[:start]) + insert + string(chars[end:]), nil
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
