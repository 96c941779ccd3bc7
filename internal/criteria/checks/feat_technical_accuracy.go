package checks

import (
	"conclave/internal/criteria"
	"strings"
)

type FeatTechnicalAccuracy struct{ meta }

func (c *FeatTechnicalAccuracy) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)

	tech := criteria.CountMatches(content,
		"algorithm", "data structure", "complexity", "performance",
		"memory", "cpu", "network", "database", "api", "protocol")
	switch {
	case tech >= 5:
		t.Strength(0.3, "Strong technical depth")
	case tech >= 3:
		t.Strength(0.1, "Good technical coverage")
	default:
		t.Weakness(0.1, "Limited technical depth")
	}

	if criteria.ContainsAny(content, "mvc", "mvp", "singleton", "factory", "observer", "strategy") {
		t.Strength(0.2, "Uses established architecture patterns")
	}

	if criteria.ContainsAny(content, "security", "authentication", "authorization", "encryption", "validation") {
		t.Strength(0.1, "Addresses security considerations")
	} else {
		t.Weakness(0, "Limited security discussion")
	}

	if criteria.ContainsAny(content, "scalable", "maintainable", "extensible") {
		t.Strength(0.1, "Considers scalability and maintainability")
	}

	if strings.Contains(content, "test") || strings.Contains(content, "integration") {
		t.Strength(0.2, "Includes testing approach")
	} else {
		t.Weakness(0.1, "No testing methodology specified")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&FeatTechnicalAccuracy{meta{
		kind:        criteria.KindFeature,
		name:        "technical_accuracy",
		title:       "Technical Accuracy",
		description: "Technical depth, named architecture patterns, security, maintainability and a testing approach.",
	}})
}
