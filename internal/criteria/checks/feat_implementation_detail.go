package checks

import (
	"conclave/internal/criteria"
	"strings"
)

var featDetailIndicators = []string{
	"function", "method", "class", "struct", "interface",
	"algorithm", "data structure", "parameter", "return",
	"input", "output", "validation", "error handling",
}

type FeatImplementationDetail struct{ meta }

func (c *FeatImplementationDetail) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0)
	content := strings.ToLower(a.Content)

	detail := criteria.Clamp(float64(criteria.CountMatches(content, featDetailIndicators...)) / float64(len(featDetailIndicators)))
	t.Adjust(detail * 0.4)
	switch {
	case detail >= 0.7:
		t.Strength(0, "Rich implementation details and specificity")
	case detail >= 0.4:
		t.Strength(0, "Good level of implementation detail")
	default:
		t.Weakness(0, "Lacks specific implementation details")
	}

	switch {
	case strings.Contains(a.Content, "```"):
		t.Strength(0.2, "Includes code examples")
	case criteria.ContainsAny(content, "pseudocode", "example", "sample"):
		t.Strength(0.1, "Provides implementation examples")
	default:
		t.Weakness(0, "No code examples or pseudocode")
	}

	if criteria.ContainsAny(content, "flow", "process", "step", "sequence", "workflow") {
		t.Strength(0.2, "Describes implementation flow and processes")
	} else {
		t.Weakness(0, "Limited description of implementation flow")
	}

	if criteria.ContainsAny(content, "edge case", "error", "exception", "failure") {
		t.Strength(0.1, "Addresses edge cases and error handling")
	} else {
		t.Weakness(0, "Missing edge case and error handling discussion")
	}

	if criteria.ContainsAny(content, "performance", "optimization", "efficiency") {
		t.Strength(0.1, "Includes performance considerations")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&FeatImplementationDetail{meta{
		kind:        criteria.KindFeature,
		name:        "implementation_detail",
		title:       "Implementation Detail",
		description: "Density of implementation vocabulary plus code examples, flow description, edge cases and performance notes.",
	}})
}
