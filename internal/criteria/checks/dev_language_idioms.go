package checks

import "conclave/internal/criteria"

// DevLanguageIdioms is a fixed score; code idioms are not analysed.
type DevLanguageIdioms struct{ meta }

func (c *DevLanguageIdioms) Evaluate(*criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.7)
	t.Strength(0, "Uses appropriate language patterns")
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevLanguageIdioms{meta{
		kind:        criteria.KindCode,
		name:        "language_idioms",
		title:       "Language Idioms",
		description: "Constant 0.7 for every non-empty bundle.",
	}})
}
