// Package timespan extracts a duration in minutes from free text.
//
// Matching is first-pattern-wins over an ordered list of unit patterns;
// compound spans are never combined, so "1h30m" resolves to whichever single
// pattern matches first (30, not 90). This is an accepted limitation of the
// fallback parser, not something callers should work around.
package timespan

import (
	"regexp"
	"strconv"
	"strings"
)

type pattern struct {
	re     *regexp.Regexp
	factor float64
}

// Ordered by priority. Word forms first so "2 hours" is not consumed by the
// bare-letter "h" pattern with a different boundary.
var patterns = []pattern{
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*hours?`), 60},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*hrs?`), 60},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*minutes?`), 1},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*mins?`), 1},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*m\b`), 1},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*h\b`), 60},
}

// Extract scans text for the first matching duration pattern and returns
// the value in minutes. The second return value is false when no pattern
// matches. There is no bare-number fallback here; see ParseField.
func Extract(text string) (float64, bool) {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return n * p.factor, true
	}
	return 0, false
}

// ParseField parses an explicit duration field ("30m", "2h", "45min", or a
// bare number taken as minutes). Used by the manual-entry path, where a bare
// number is an acceptable shorthand; the inference fallback path never
// treats bare numbers as durations.
func ParseField(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, ok := Extract(s); ok {
		return v, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
