package service

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ryandumpert/flint/model"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("indemnify")
	if len(a) != 16 {
		t.Errorf("Expected 16 hex digits, got %q", a)
	}
	if a != Fingerprint("indemnify") {
		t.Error("Expected fingerprint to be stable")
	}
	if a == Fingerprint("indemnity") {
		t.Error("Expected different text to hash differently")
	}
}

func TestReanchor(t *testing.T) {
	text := "Fees are due in 30 days. Late fees accrue after 30 days."

	tests := []struct {
		name      string
		anchor    model.Anchor
		quote     string
		wantStart int
		wantErr   error
	}{
		{
			name:      "exact",
			anchor:    model.Anchor{Start: 16, End: 23},
			quote:     "30 days",
			wantStart: 16,
		},
		{
			name:      "drifted left",
			anchor:    model.Anchor{Start: 12, End: 19, ContextWindow: 8},
			quote:     "30 days",
			wantStart: 16,
		},
		{
			name:      "nearest of two occurrences",
			anchor:    model.Anchor{Start: 45, End: 52, ContextWindow: 40},
			quote:     "30 days",
			wantStart: 48,
		},
		{
			name:    "outside window",
			anchor:  model.Anchor{Start: 0, End: 7, ContextWindow: 5},
			quote:   "30 days",
			wantErr: ErrInvalidAnchor,
		},
		{
			name:    "no window",
			anchor:  model.Anchor{Start: 12, End: 19},
			quote:   "30 days",
			wantErr: ErrInvalidAnchor,
		},
		{
			name:    "negative start",
			anchor:  model.Anchor{Start: -1, End: 3},
			quote:   "Fee",
			wantErr: ErrInvalidAnchor,
		},
		{
			name:    "end before start",
			anchor:  model.Anchor{Start: 5, End: 2},
			quote:   "",
			wantErr: ErrInvalidAnchor,
		},
		{
			name:    "fingerprint mismatch",
			anchor:  model.Anchor{Start: 16, End: 23, Fingerprint: "0000000000000000"},
			quote:   "30 days",
			wantErr: ErrInvalidAnchor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reanchor(text, tt.anchor, tt.quote)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Start != tt.wantStart || got.End != tt.wantStart+len(tt.quote) {
				t.Errorf("Expected [%d, %d), got [%d, %d)", tt.wantStart, tt.wantStart+len(tt.quote), got.Start, got.End)
			}
			if got.Fingerprint != Fingerprint(tt.quote) {
				t.Errorf("Expected fingerprint to be filled in")
			}
		})
	}
}

func TestPreviewEdit(t *testing.T) {
	text := "Payment is due within 30 days of invoice."
	target := model.Anchor{Start: 22, End: 29} // "30 days"

	tests := []struct {
		name    string
		edit    model.SuggestedEdit
		want    string
		wantErr error
	}{
		{
			name: "change",
			edit: model.SuggestedEdit{Type: model.EditChange, ReplacementText: "45 days", Target: target},
			want: "Payment is due within 45 days of invoice.",
		},
		{
			name: "change falls back to proposed text",
			edit: model.SuggestedEdit{Type: model.EditChange, ProposedText: "60 days", Target: target},
			want: "Payment is due within 60 days of invoice.",
		},
		{
			name: "add after target",
			edit: model.SuggestedEdit{Type: model.EditAdd, ProposedText: " (net)", Target: target},
			want: "Payment is due within 30 days (net) of invoice.",
		},
		{
			name: "remove",
			edit: model.SuggestedEdit{Type: model.EditRemove, Target: model.Anchor{Start: 29, End: 40}},
			want: "Payment is due within 30 days.",
		},
		{
			name:    "unknown type",
			edit:    model.SuggestedEdit{Type: "rewrite", Target: target},
			wantErr: ErrInvalidEdit,
		},
		{
			name:    "target past end",
			edit:    model.SuggestedEdit{Type: model.EditRemove, Target: model.Anchor{Start: 30, End: 100}},
			wantErr: ErrInvalidAnchor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PreviewEdit(text, tt.edit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPreviewEditMultibyte(t *testing.T) {
	text := "Срок: 30 дней."
	got, err := PreviewEdit(text, model.SuggestedEdit{
		Type:            model.EditChange,
		ReplacementText: "60",
		Target:          model.Anchor{Start: 6, End: 8},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Срок: 60 дней." {
		t.Errorf("Expected character offsets to be used, got %q", got)
	}
}
