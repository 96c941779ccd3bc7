package checks

import "conclave/internal/criteria"

type DevDocumentation struct{ meta }

func (c *DevDocumentation) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0)
	if a.CodeMetrics().HasDocs {
		t.Strength(1.0, "Includes documentation")
	} else {
		t.Weakness(0, "Missing documentation")
	}
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevDocumentation{meta{
		kind:        criteria.KindCode,
		name:        "documentation",
		title:       "Documentation",
		description: "A README or doc file at the bundle root, or source comments above the language's threshold.",
	}})
}
