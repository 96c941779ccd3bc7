package checks

import (
	"conclave/internal/criteria"
	"strings"
)

type DesignDocumentation struct{ meta }

func (c *DesignDocumentation) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	lower := strings.ToLower(a.Content)

	headers := headerCount(a.Content)
	switch {
	case headers >= 5:
		t.Strength(0.2, "Well-structured with clear sections")
	case headers >= 3:
		t.Strength(0.1, "Good document structure")
	default:
		t.Weakness(0.2, "Poor document structure")
	}

	if criteria.ContainsAny(lower, "diagram", "figure", "chart", "visual") {
		t.Strength(0.2, "Includes visual documentation")
	}
	if criteria.ContainsAny(lower, "example", "use case", "scenario") {
		t.Strength(0.2, "Provides examples and use cases")
	}

	if avg, ok := averageSentenceLength(a.Content, false); ok {
		switch {
		case avg >= 10 && avg <= 25:
			t.Strength(0.1, "Clear and readable writing style")
		case avg > 30:
			t.Weakness(0.1, "Sentences may be too long and complex")
		}
	}

	if strings.Contains(a.Content, "TODO") || strings.Contains(a.Content, "TBD") {
		t.Weakness(0.2, "Contains incomplete sections")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignDocumentation{meta{
		kind:        criteria.KindDesign,
		name:        "documentation",
		title:       "Documentation Clarity",
		description: "Header structure, visuals, examples, sentence length and absence of TODO/TBD markers.",
	}})
}
