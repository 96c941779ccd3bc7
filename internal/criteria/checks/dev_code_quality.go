package checks

import (
	"conclave/internal/criteria"
	"fmt"
)

type DevCodeQuality struct{ meta }

func (c *DevCodeQuality) Evaluate(a *criteria.Artifact) criteria.Result {
	m := a.CodeMetrics()
	t := criteria.NewTally(0.5)

	if len(m.SyntaxErrors) == 0 {
		t.Strength(0.3, "No syntax errors detected")
	} else {
		t.Weakness(0.4, fmt.Sprintf("%d syntax errors found", len(m.SyntaxErrors)))
	}

	smellRatio := float64(len(m.CodeSmells)) / float64(max(1, m.TotalFiles))
	switch {
	case smellRatio == 0:
		t.Strength(0.2, "Clean code with no detected issues")
	case smellRatio < 2:
		t.Strength(0.1, "Minimal code quality issues")
	default:
		t.Weakness(0.2, "Multiple code quality issues detected")
	}

	switch {
	case m.Complexity <= 5:
		t.Strength(0.1, "Low complexity, maintainable code")
	case m.Complexity <= 10:
		t.Strength(0, "Moderate complexity")
	default:
		t.Weakness(0.1, "High complexity, may be difficult to maintain")
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevCodeQuality{meta{
		kind:        criteria.KindCode,
		name:        "code_quality",
		title:       "Code Quality",
		description: "Syntax errors, code smells per file and average branching complexity of the source files.",
	}})
}
