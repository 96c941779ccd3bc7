// Package outline extracts markdown section structure and compares it against
// an expected subsection list.
package outline

import (
	"regexp"
	"strings"
)

var (
	headerPattern     = regexp.MustCompile(`(?m)^(#+)\s+(.+)$`)
	lineHeaderPattern = regexp.MustCompile(`^(#+)\s+(.+)$`)
	numericPrefix     = regexp.MustCompile(`^[\d.]+\s*`)
	numericSectionID  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

const (
	missingPenalty = 0.3
	extraPenalty   = 0.1
)

// Validation is the result of comparing a document's headers against the
// expected subsection list.
type Validation struct {
	Expected []string `json:"expected_sections"`
	Found    []string `json:"found_sections"`
	Missing  []string `json:"missing_sections"`
	Extra    []string `json:"extra_sections"`
	Score    float64  `json:"structure_score"`
	Valid    bool     `json:"is_valid"`
}

// Normalize strips a leading section number ("2.1 ") and lower-cases the title.
func Normalize(title string) string {
	title = strings.TrimSpace(title)
	return strings.TrimSpace(strings.ToLower(numericPrefix.ReplaceAllString(title, "")))
}

// Extract returns the normalized titles of every markdown header in content,
// in document order.
func Extract(content string) []string {
	var sections []string
	for _, m := range headerPattern.FindAllStringSubmatch(content, -1) {
		sections = append(sections, Normalize(m[2]))
	}
	return sections
}

// Expected returns the direct subsections (one level below) of the section in
// appMD identified by sectionID. Numeric ids ("2", "2.3") match titles that
// start with the id followed by '.' or whitespace; other ids match by
// case-insensitive containment in either direction.
func Expected(appMD, sectionID string) []string {
	var expected []string
	if strings.TrimSpace(appMD) == "" {
		return expected
	}

	inTarget := false
	targetLevel := 0
	for _, line := range strings.Split(appMD, "\n") {
		line = strings.TrimSpace(line)
		m := lineHeaderPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := len(m[1])
		title := strings.TrimSpace(m[2])

		if !inTarget {
			if isTargetSection(title, sectionID) {
				inTarget = true
				targetLevel = level
			}
			continue
		}

		if level <= targetLevel {
			break
		}
		if level == targetLevel+1 {
			expected = append(expected, Normalize(title))
		}
	}
	return expected
}

func isTargetSection(title, sectionID string) bool {
	if numericSectionID.MatchString(sectionID) {
		p := regexp.MustCompile(`^` + regexp.QuoteMeta(sectionID) + `[.\s]`)
		if p.MatchString(title) {
			return true
		}
	}
	t := strings.ToLower(title)
	s := strings.ToLower(sectionID)
	if s == "" {
		return false
	}
	return strings.Contains(t, s) || strings.Contains(s, t)
}

// Validate compares content's headers against expected (already normalized).
func Validate(content string, expected []string) Validation {
	found := Extract(content)

	expectedSet := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		expectedSet[e] = struct{}{}
	}
	foundSet := make(map[string]struct{}, len(found))
	for _, f := range found {
		foundSet[f] = struct{}{}
	}

	missing := difference(expected, foundSet)
	extra := difference(found, expectedSet)

	v := Validation{
		Expected: expected,
		Found:    found,
		Missing:  missing,
		Extra:    extra,
		Score:    1.0,
		Valid:    true,
	}
	if len(expected) == 0 {
		return v
	}
	if len(missing) > 0 || len(extra) > 0 {
		penalty := float64(len(missing))*missingPenalty + float64(len(extra))*extraPenalty
		v.Score = max(0.0, 1.0-penalty/float64(len(expected)))
		v.Valid = len(missing) == 0
	}
	return v
}

// difference returns the distinct items of list (in order) absent from other.
func difference(list []string, other map[string]struct{}) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, item := range list {
		if _, ok := other[item]; ok {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
