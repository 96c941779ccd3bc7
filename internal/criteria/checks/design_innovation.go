package checks

import (
	"conclave/internal/criteria"
	"strings"
)

type DesignInnovation struct{ meta }

func (c *DesignInnovation) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)

	if criteria.ContainsAny(content, "innovative", "novel", "creative", "elegant", "unique") {
		t.Strength(0.2, "Demonstrates innovative thinking")
	}
	if criteria.ContainsAny(content, "modern", "contemporary", "latest", "current", "state-of-the-art") {
		t.Strength(0.1, "Uses modern approaches")
	}
	if criteria.ContainsAny(content, "optimize", "efficient", "performance", "fast", "lightweight") {
		t.Strength(0.2, "Focuses on optimization and efficiency")
	}
	if criteria.ContainsAny(content, "extensible", "flexible", "modular", "configurable", "pluggable") {
		t.Strength(0.2, "Designed for extensibility")
	}
	if criteria.ContainsAny(content, "complicated", "convoluted", "over-engineered", "complex") {
		t.Weakness(0.1, "May be overly complex")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignInnovation{meta{
		kind:        criteria.KindDesign,
		name:        "innovation",
		title:       "Innovation",
		description: "Rewards novel, modern, efficient and extensible approaches; penalizes self-described complexity.",
	}})
}
