package checks

import (
	"conclave/internal/criteria"
	"regexp"
	"strings"
)

var listItem = regexp.MustCompile(`(?m)^\s*[-*+]\s+|^\s*\d+\.\s+`)

type FeatClarity struct{ meta }

func (c *FeatClarity) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)

	headers := headerCount(a.Content)
	switch {
	case headers >= 3:
		t.Strength(0.2, "Well-structured document")
	case headers >= 1:
		t.Strength(0.1, "Basic document structure")
	default:
		t.Weakness(0.2, "Poor document structure")
	}

	if len(listItem.FindAllStringIndex(a.Content, -1)) >= 5 {
		t.Strength(0.1, "Good use of lists for organization")
	}

	if criteria.ContainsAny(strings.ToLower(a.Content), "specifically", "namely", "for example", "in other words", "that is") {
		t.Strength(0.1, "Uses clear explanatory language")
	}

	if avg, ok := averageSentenceLength(a.Content, true); ok {
		switch {
		case avg >= 10 && avg <= 25:
			t.Strength(0.1, "Good sentence length for readability")
		case avg > 30:
			t.Weakness(0.1, "Sentences may be too long")
		}
	}

	if criteria.ContainsAny(strings.ToUpper(a.Content), "TODO", "TBD", "FIXME") {
		t.Weakness(0.2, "Contains incomplete sections")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&FeatClarity{meta{
		kind:        criteria.KindFeature,
		name:        "clarity",
		title:       "Clarity",
		description: "Headers, lists, explanatory phrasing, sentence length and incomplete markers.",
	}})
}
