package checks

import (
	"conclave/internal/criteria"
	"strings"
)

type DesignArchitecture struct{ meta }

func (c *DesignArchitecture) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)

	components := criteria.CountMatches(content, "component", "module", "service", "layer", "interface")
	switch {
	case components >= 3:
		t.Strength(0.2, "Well-defined architectural components")
	case components > 0:
		t.Strength(0.1, "Some architectural structure")
	default:
		t.Weakness(0.2, "Unclear architectural structure")
	}

	if criteria.ContainsAny(content, "scalability", "scale", "performance", "load", "concurrent") {
		t.Strength(0.2, "Addresses scalability concerns")
	} else {
		t.Weakness(0.1, "Limited scalability discussion")
	}

	if criteria.ContainsAny(content, "data flow", "communication", "api", "interface") {
		t.Strength(0.15, "Defines data flow and communication")
	} else {
		t.Weakness(0.15, "Unclear data flow and communication")
	}

	if criteria.ContainsAny(content, "error", "exception", "failure", "resilience") {
		t.Strength(0.15, "Considers error handling and resilience")
	} else {
		t.Weakness(0.1, "Limited error handling discussion")
	}

	if criteria.ContainsAny(content, "separation", "concern", "responsibility", "single") {
		t.Strength(0.1, "Good separation of concerns")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignArchitecture{meta{
		kind:        criteria.KindDesign,
		name:        "architecture",
		title:       "Architecture Soundness",
		description: "Looks for named components, scalability, data flow, error handling and separation of concerns.",
	}})
}
