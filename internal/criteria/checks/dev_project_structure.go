package checks

import "conclave/internal/criteria"

type DevProjectStructure struct{ meta }

func (c *DevProjectStructure) Evaluate(a *criteria.Artifact) criteria.Result {
	m := a.CodeMetrics()
	t := criteria.NewTally(0.5)
	if m.ExpectedDirs == 0 {
		return t.Result(c.ID())
	}

	ratio := float64(len(m.Dirs)) / float64(m.ExpectedDirs)
	switch {
	case ratio >= 0.8:
		t.Strength(0.3, "Excellent project organization")
	case ratio >= 0.5:
		t.Strength(0.1, "Good project structure")
	default:
		t.Weakness(0.2, "Poor project organization")
	}

	if m.HasEntry {
		t.Strength(0.1, "Clear entry point defined")
	} else {
		t.Weakness(0.1, "No clear entry point found")
	}
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevProjectStructure{meta{
		kind:        criteria.KindCode,
		name:        "project_structure",
		title:       "Project Structure",
		description: "Presence of the language's conventional directories and an entry point file.",
	}})
}
