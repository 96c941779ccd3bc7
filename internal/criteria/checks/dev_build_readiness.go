package checks

import "conclave/internal/criteria"

type DevBuildReadiness struct{ meta }

func (c *DevBuildReadiness) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0)
	if a.CodeMetrics().HasBuildConfig {
		t.Strength(1.0, "Build configuration present")
	} else {
		t.Weakness(0, "Missing build configuration")
	}
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DevBuildReadiness{meta{
		kind:        criteria.KindCode,
		name:        "build_readiness",
		title:       "Build Readiness",
		description: "A build file for the language (go.mod, Cargo.toml, package.json, ...) at the bundle root.",
	}})
}
