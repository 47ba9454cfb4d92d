// Package splitter cuts long text at natural section boundaries
// (headings, bullets, numbered items, speaker changes) and provides the
// paragraph and sentence fallbacks used when no boundary exists.
package splitter

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMinMatches is how many hits a pattern needs before it is used.
const DefaultMinMatches = 2

// Splitter tries its patterns in order; the first one with at least
// MinMatches hits decides the cut points.
type Splitter struct {
	Patterns   []Pattern
	MinMatches int
}

// New returns a Splitter over patterns. A nil table means DefaultPatterns.
func New(patterns []Pattern) *Splitter {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Splitter{Patterns: patterns, MinMatches: DefaultMinMatches}
}

// Split returns trimmed, non-empty segments in input order. When no
// pattern qualifies the whole (trimmed) text is the only segment.
func (s *Splitter) Split(text string) []string {
	if _, cuts, ok := s.match(text); ok {
		return cutAt(text, cuts)
	}
	if t := strings.TrimSpace(text); t != "" {
		return []string{t}
	}
	return nil
}

// Match reports which pattern Split would use, if any.
func (s *Splitter) Match(text string) (Pattern, bool) {
	p, _, ok := s.match(text)
	return p, ok
}

func (s *Splitter) match(text string) (Pattern, []int, bool) {
	minMatches := s.MinMatches
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}
	for _, p := range s.Patterns {
		if p.Expr == nil {
			continue
		}
		locs := p.Expr.FindAllStringIndex(text, -1)
		if len(locs) < minMatches {
			continue
		}
		cuts := make([]int, 0, len(locs))
		for _, loc := range locs {
			cuts = append(cuts, loc[0])
		}
		return p, cuts, true
	}
	return Pattern{}, nil, false
}

func cutAt(text string, cuts []int) []string {
	var segments []string
	prev := 0
	for _, c := range cuts {
		if c > prev {
			segments = appendTrimmed(segments, text[prev:c])
		}
		prev = c
	}
	return appendTrimmed(segments, text[prev:])
}

func appendTrimmed(segments []string, s string) []string {
	if t := strings.TrimSpace(s); t != "" {
		segments = append(segments, t)
	}
	return segments
}

var blankLine = regexp.MustCompile(`\n[ \t\x{3000}]*\n`)

// SplitParagraphs cuts at blank lines.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		out = appendTrimmed(out, p)
	}
	return out
}

// SplitSentences cuts after sentence terminators. CJK terminators always
// end a sentence; ASCII ones only when followed by whitespace or the end.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cjk := r == '。' || r == '！' || r == '？'
		ascii := r == '.' || r == '!' || r == '?'
		if !cjk && !ascii {
			continue
		}

		end := i + 1
		for end < len(runes) && isCloser(runes[end]) {
			end++
		}
		if ascii && end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		out = appendTrimmed(out, string(runes[start:end]))
		start = end
		i = end - 1
	}

	if start < len(runes) {
		out = appendTrimmed(out, string(runes[start:]))
	}
	return out
}

func isCloser(r rune) bool {
	switch r {
	case '」', '』', '）', ')', '"', '\'', '”', '’', '】':
		return true
	}
	return false
}
