package checks

import "conclave/internal/criteria"

type DevTestCoverage struct{ meta }

func (c *DevTestCoverage) Evaluate(a *criteria.Artifact) criteria.Result {
	m := a.CodeMetrics()
	t := criteria.NewTally(0)
	if m.TotalFiles == 0 {
		return t.Result(c.ID())
	}

	ratio := float64(m.TestFiles) / float64(m.TotalFiles)
	switch {
	case ratio >= 0.8:
		t.Strength(1.0, "Excellent test coverage")
	case ratio >= 0.6:
		t.Strength(0.8, "Good test coverage")
	case ratio >= 0.3:
		t.Strength(0.5, "Basic test coverage")
	case ratio > 0:
		t.Adjust(0.2)
		t.Weakness(0, "Limited test coverage")
	default:
		t.Weakness(0, "No test files found")
	}
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevTestCoverage{meta{
		kind:        criteria.KindCode,
		name:        "test_coverage",
		title:       "Test Coverage",
		description: "Share of source files that are tests, bucketed into fixed scores.",
	}})
}
