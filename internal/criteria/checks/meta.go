// Package checks holds the built-in scoring criteria. Each criterion registers
// itself in init; import the package for its side effects.
package checks

import (
	"conclave/internal/criteria"
	"regexp"
	"strings"
)

// meta carries the descriptive half of a criterion.
type meta struct {
	kind        criteria.Kind
	name        string
	title       string
	description string
}

func (m meta) ID() string { return string(m.kind) + "." + m.name }
func (m meta) Kind() criteria.Kind { return m.kind }
func (m meta) Name() string { return m.name }
func (m meta) Title() string { return m.title }
func (m meta) Description() string { return m.description }

// languagePatterns lists idioms, anti-patterns and best practices for one
// language as lower-case substrings.
type languagePatterns struct {
	patterns     []string
	antiPatterns []string
	practices    []string
}

var headerLine = regexp.MustCompile(`(?m)^#+\s+`)

func headerCount(content string) int {
	return len(headerLine.FindAllStringIndex(content, -1))
}

// averageSentenceLength splits on '.' and averages word counts. When
// skipEmpty is set, blank fragments are dropped before averaging.
func averageSentenceLength(content string, skipEmpty bool) (float64, bool) {
	parts := strings.Split(content, ".")
	var words, n int
	for _, p := range parts {
		if skipEmpty && strings.TrimSpace(p) == "" {
			continue
		}
		words += len(strings.Fields(p))
		n++
	}
	if n == 0 {
		return 0, false
	}
	return float64(words) / float64(n), true
}
