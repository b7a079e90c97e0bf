package pii

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Pattern names of the built-in table.
const (
	TypeSSN         = "ssn"
	TypeCreditCard  = "credit_card"
	TypeEmail       = "email"
	TypePhone       = "phone"
	TypeBankRouting = "bank_routing"
	TypeDOB         = "dob"
)

const maskChar = "●"

// Span is a byte range [Start, End) in the scanned text.
type Span struct {
	Start int
	End   int
}

// Matcher finds candidate spans in text.
type Matcher interface {
	FindAll(text string) []Span
}

// MaskFunc returns the display replacement for a matched value. Returning the
// value unchanged discards the match.
type MaskFunc func(original string) string

// Pattern is one row of the scan table.
type Pattern struct {
	Name    string
	Level   Level
	Matcher Matcher
	Mask    MaskFunc
}

type regexpMatcher struct {
	re    *regexp.Regexp
	group int
}

// Regexp returns a Matcher over every match of expr. It panics if expr does
// not compile.
func Regexp(expr string) Matcher {
	return regexpMatcher{re: regexp.MustCompile(expr)}
}

// RegexpGroup is like Regexp but reports only the span of capture group n.
// Matches where the group did not participate are skipped.
func RegexpGroup(expr string, n int) Matcher {
	return regexpMatcher{re: regexp.MustCompile(expr), group: n}
}

func (m regexpMatcher) FindAll(text string) []Span {
	locs := m.re.FindAllStringSubmatchIndex(text, -1)
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		i := 2 * m.group
		if i+1 >= len(loc) || loc[i] < 0 {
			continue
		}
		spans = append(spans, Span{Start: loc[i], End: loc[i+1]})
	}
	return spans
}

// Fixed returns a MaskFunc that always yields placeholder.
func Fixed(placeholder string) MaskFunc {
	return func(string) string { return placeholder }
}

// DefaultPatterns returns the built-in table in scan order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:    TypeSSN,
			Level:   LevelHigh,
			Matcher: Regexp(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`),
			Mask:    Fixed("●●●-●●-●●●●"),
		},
		{
			Name:    TypeCreditCard,
			Level:   LevelHigh,
			Matcher: Regexp(`\b(?:\d{4}[- ]?){3}\d{4}\b`),
			Mask:    Fixed("●●●● ●●●● ●●●● ●●●●"),
		},
		{
			Name:    TypeEmail,
			Level:   LevelMedium,
			Matcher: Regexp(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
			Mask:    maskEmail,
		},
		{
			Name:    TypePhone,
			Level:   LevelMedium,
			Matcher: Regexp(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			Mask:    maskPhone,
		},
		{
			Name:    TypeBankRouting,
			Level:   LevelMedium,
			Matcher: Regexp(`\b\d{9}\b`),
			Mask:    Fixed("●●●●●●●●●"),
		},
		{
			Name:  TypeDOB,
			Level: LevelMedium,
			Matcher: RegexpGroup(
				`(?i)\b(?:date of birth|dob|born|birth)\b[\s:.\-]*(?:on\s+)?(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{4}-\d{1,2}-\d{1,2})\b`,
				1,
			),
			Mask: Fixed("●●/●●/●●●●"),
		},
	}
}

// Select returns the built-in patterns named in names, in table order. An
// empty list selects the whole table.
func Select(names []string) ([]Pattern, error) {
	all := DefaultPatterns()
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}

	var out []Pattern
	for _, p := range all {
		if want[p.Name] {
			out = append(out, p)
			delete(want, p.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, errors.Newf("unknown pii pattern(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// maskEmail keeps the first and last character of the local part and the
// whole domain. A one character local part is masked entirely.
func maskEmail(original string) string {
	at := strings.LastIndexByte(original, '@')
	if at <= 0 {
		return original
	}
	local, domain := original[:at], original[at:]

	n := utf8.RuneCountInString(local)
	if n == 1 {
		return maskChar + domain
	}

	first, _ := utf8.DecodeRuneInString(local)
	last, _ := utf8.DecodeLastRuneInString(local)

	var b strings.Builder
	b.WriteRune(first)
	b.WriteString(strings.Repeat(maskChar, n-2))
	b.WriteRune(last)
	b.WriteString(domain)
	return b.String()
}

// maskPhone leaves short digit runs alone so section numbers such as
// "12.345" never read as phone numbers.
func maskPhone(original string) string {
	digits := 0
	for i := 0; i < len(original); i++ {
		if original[i] >= '0' && original[i] <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return original
	}
	return "(●●●) ●●●-●●●●"
}
