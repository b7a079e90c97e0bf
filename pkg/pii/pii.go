// Package pii detects and masks personal data in contract text.
//
// A Scanner runs an ordered table of patterns over a string. Each pattern is
// independent: matches from different patterns are not merged, so overlapping
// detections are expected (a nine digit run inside a card number, for
// example). Masking splices replacements from the highest offset down, which
// keeps every remaining offset valid regardless of overlaps.
//
// Usage:
//
//	dets := pii.Detect(text)          // ordered by Index
//	shown := pii.Mask(text)           // display-only rendering
//	sum := pii.Summarize(text)        // counts and type names, safe to log
//
// Nothing in this package logs or stores the values it finds.
package pii

import (
	"sort"
	"unicode/utf8"
)

// Level is the sensitivity of a detection.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Detection is one masked match. Index is a character (code point) offset
// into the scanned string.
type Detection struct {
	Type     string `json:"type"`
	Original string `json:"original"`
	Masked   string `json:"masked"`
	Index    int    `json:"index"`
	Level    Level  `json:"level"`
}

// Summary aggregates a scan without carrying any matched value.
type Summary struct {
	TotalDetections int      `json:"total_detections"`
	HighSeverity    int      `json:"high_severity"`
	Types           []string `json:"types"`
}

// Scanner applies a fixed pattern table. It holds no mutable state and is
// safe for concurrent use.
type Scanner struct {
	patterns []Pattern
}

// New creates a Scanner over patterns, in the given order. Patterns missing
// a matcher or a mask function are ignored.
func New(patterns ...Pattern) *Scanner {
	kept := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Matcher == nil || p.Mask == nil {
			continue
		}
		kept = append(kept, p)
	}
	return &Scanner{patterns: kept}
}

// Patterns returns the names of the patterns the scanner runs.
func (s *Scanner) Patterns() []string {
	names := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		names[i] = p.Name
	}
	return names
}

// Detect runs every pattern against text and returns the matches whose mask
// differs from the matched text, sorted by Index. Ties keep table order.
func (s *Scanner) Detect(text string) []Detection {
	out := []Detection{}
	if text == "" {
		return out
	}

	offsets := newCharOffsets(text)
	for _, p := range s.patterns {
		for _, sp := range p.Matcher.FindAll(text) {
			if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
				continue
			}
			original := text[sp.Start:sp.End]
			masked := p.Mask(original)
			if masked == original {
				continue
			}
			out = append(out, Detection{
				Type:     p.Name,
				Original: original,
				Masked:   masked,
				Index:    offsets.at(sp.Start),
				Level:    p.Level,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}

// Mask returns text with every detection replaced by its mask. Text without
// detections is returned unchanged.
func (s *Scanner) Mask(text string) string {
	dets := s.Detect(text)
	if len(dets) == 0 {
		return text
	}

	chars := []rune(text)
	for i := len(dets) - 1; i >= 0; i-- {
		d := dets[i]
		start := d.Index
		if start > len(chars) {
			continue
		}
		end := start + utf8.RuneCountInString(d.Original)
		if end > len(chars) {
			end = len(chars)
		}
		masked := []rune(d.Masked)
		spliced := make([]rune, 0, len(chars)-(end-start)+len(masked))
		spliced = append(spliced, chars[:start]...)
		spliced = append(spliced, masked...)
		spliced = append(spliced, chars[end:]...)
		chars = spliced
	}
	return string(chars)
}

// Summarize counts detections and lists the distinct pattern names in order
// of first appearance.
func (s *Scanner) Summarize(text string) Summary {
	return Summarized(s.Detect(text))
}

// ContainsHighSeverity reports whether any detection in text is high level.
func (s *Scanner) ContainsHighSeverity(text string) bool {
	for _, d := range s.Detect(text) {
		if d.Level == LevelHigh {
			return true
		}
	}
	return false
}

// Summarized builds a Summary from detections that were already computed.
func Summarized(dets []Detection) Summary {
	sum := Summary{Types: []string{}}
	seen := make(map[string]bool)
	for _, d := range dets {
		sum.TotalDetections++
		if d.Level == LevelHigh {
			sum.HighSeverity++
		}
		if !seen[d.Type] {
			seen[d.Type] = true
			sum.Types = append(sum.Types, d.Type)
		}
	}
	return sum
}

var defaultScanner = New(DefaultPatterns()...)

// Default returns the scanner over the built-in pattern table.
func Default() *Scanner { return defaultScanner }

// Detect runs the built-in pattern table. See Scanner.Detect.
func Detect(text string) []Detection { return defaultScanner.Detect(text) }

// Mask masks text with the built-in pattern table. See Scanner.Mask.
func Mask(text string) string { return defaultScanner.Mask(text) }

// Summarize summarizes text with the built-in pattern table.
func Summarize(text string) Summary { return defaultScanner.Summarize(text) }

// ContainsHighSeverity reports high level detections using the built-in table.
func ContainsHighSeverity(text string) bool { return defaultScanner.ContainsHighSeverity(text) }

// charOffsets maps byte offsets to character offsets. Invalid UTF-8 bytes
// count as one character each, matching both regexp and []rune conversion.
type charOffsets struct {
	table []int // nil when the text is pure ASCII
}

func newCharOffsets(s string) charOffsets {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return charOffsets{}
	}

	table := make([]int, len(s)+1)
	n := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for k := 0; k < size; k++ {
			table[i+k] = n
		}
		i += size
		n++
	}
	table[len(s)] = n
	return charOffsets{table: table}
}

func (o charOffsets) at(byteOffset int) int {
	if o.table == nil {
		return byteOffset
	}
	return o.table[byteOffset]
}
