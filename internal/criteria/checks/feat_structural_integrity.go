package checks

import (
	"conclave/internal/criteria"
	"strings"
)

// FeatStructuralIntegrity scores how faithfully a feature document keeps the
// expected subsection outline.
type FeatStructuralIntegrity struct{ meta }

func (c *FeatStructuralIntegrity) Evaluate(a *criteria.Artifact) criteria.Result {
	v := a.Structure()
	t := criteria.NewTally(v.Score)
	if v.Valid {
		t.Strength(0, "Preserves required section structure")
	} else {
		t.Weakness(0, "Missing required sections: "+strings.Join(v.Missing, ", "))
	}
	return t.Result(c.ID())
}

func init() {
	criteria.Register(&FeatStructuralIntegrity{meta{
		kind:        criteria.KindFeature,
		name:        "structural_integrity",
		title:       "Structural Integrity",
		description: "Compares the document's second-level headers with the subsections listed for the target section in app.md. Each missing section costs 0.3 and each extra costs 0.1, normalized by the expected count.",
	}})
}
