package checks

import (
	"conclave/internal/criteria"
	"strings"
)

type DesignImplementability struct{ meta }

func (c *DesignImplementability) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)

	impl := criteria.CountMatches(content, "implement", "code", "function", "method", "algorithm")
	switch {
	case impl >= 3:
		t.Strength(0.3, "Provides concrete implementation guidance")
	case impl > 0:
		t.Strength(0.1, "Some implementation details")
	default:
		t.Weakness(0.2, "Lacks implementation details")
	}

	if criteria.ContainsAny(content, "framework", "library", "database", "technology", "stack") {
		t.Strength(0.2, "Specifies technology choices")
	} else {
		t.Weakness(0.1, "Unclear technology stack")
	}

	if criteria.ContainsAny(content, "simple", "complex", "easy", "difficult", "effort") {
		t.Strength(0.1, "Considers implementation complexity")
	}

	if criteria.ContainsAny(content, "step", "phase", "stage", "milestone") {
		t.Strength(0.2, "Provides implementation roadmap")
	} else {
		t.Weakness(0.1, "No clear implementation roadmap")
	}

	if criteria.ContainsAny(content, "dependency", "requirement", "prerequisite") {
		t.Strength(0.1, "Identifies dependencies and requirements")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignImplementability{meta{
		kind:        criteria.KindDesign,
		name:        "implementability",
		title:       "Implementability",
		description: "Rewards concrete implementation guidance, a named technology stack, a roadmap and identified dependencies.",
	}})
}
