package checks

import (
	"conclave/internal/criteria"
	"strings"
)

// designAreas maps each area a design should cover to its keywords.
var designAreas = [][]string{
	{"overview", "introduction", "summary"},
	{"architecture", "design", "structure"},
	{"component", "module", "service"},
	{"data", "model", "schema", "database"},
	{"interface", "api", "contract"},
	{"deployment", "infrastructure", "environment"},
}

type DesignCompleteness struct{ meta }

func (c *DesignCompleteness) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0)
	content := strings.ToLower(a.Content)

	found := 0
	for _, keywords := range designAreas {
		if criteria.ContainsAny(content, keywords...) {
			found++
		}
	}
	ratio := float64(found) / float64(len(designAreas))
	t.Set(ratio)

	switch {
	case ratio >= 0.8:
		t.Strength(0, "Comprehensive coverage of all major areas")
	case ratio >= 0.6:
		t.Strength(0, "Good coverage of most areas")
	case ratio >= 0.4:
		t.Strength(0, "Basic coverage of key areas")
		t.Weakness(0, "Missing some important architectural aspects")
	default:
		t.Weakness(0, "Incomplete architectural coverage")
	}

	words := len(strings.Fields(a.Content))
	switch {
	case words >= 1000:
		t.Strength(0.1, "Detailed and thorough documentation")
	case words >= 500:
		t.Strength(0, "Adequate level of detail")
	default:
		t.Weakness(0.1, "Lacks sufficient detail")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignCompleteness{meta{
		kind:        criteria.KindDesign,
		name:        "completeness",
		title:       "Completeness",
		description: "Fraction of the six major design areas covered (overview, architecture, components, data, interfaces, deployment), adjusted by document length.",
	}})
}
