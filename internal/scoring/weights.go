// Package scoring combines criterion results into a weighted candidate score
// and ranks candidates of one kind.
package scoring

import "conclave/internal/criteria"

// Weight assigns a share of the overall score to one criterion.
type Weight struct {
	Criterion string
	Weight    float64
}

// weights lists, per kind, the criteria in feedback order. Each table sums to 1.
var weights = map[criteria.Kind][]Weight{
	criteria.KindDesign: {
		{"language_idioms", 0.25},
		{"architecture", 0.25},
		{"implementability", 0.20},
		{"completeness", 0.15},
		{"innovation", 0.10},
		{"documentation", 0.05},
	},
	criteria.KindFeature: {
		{"structural_integrity", 0.30},
		{"implementation_detail", 0.25},
		{"language_specificity", 0.20},
		{"technical_accuracy", 0.15},
		{"clarity", 0.10},
	},
	criteria.KindCode: {
		{"code_quality", 0.25},
		{"test_coverage", 0.20},
		{"documentation", 0.15},
		{"project_structure", 0.15},
		{"language_idioms", 0.15},
		{"build_readiness", 0.10},
	},
}

// Weights returns a copy of the weight table for kind.
func Weights(kind criteria.Kind) ([]Weight, bool) {
	w, ok := weights[kind]
	if !ok {
		return nil, false
	}
	return append([]Weight(nil), w...), true
}

type tiers [4]string

var feedback = map[criteria.Kind]tiers{
	criteria.KindDesign: {
		"Excellent design with strong architectural foundation",
		"Good design with solid implementation potential",
		"Adequate design but needs improvements",
		"Design requires significant improvements",
	},
	criteria.KindFeature: {
		"Excellent feature specification with comprehensive implementation guidance",
		"Good feature specification ready for implementation",
		"Adequate specification but needs more detail",
		"Specification requires significant improvements",
	},
	criteria.KindCode: {
		"Excellent code quality, ready for production use",
		"Good code quality with minor improvements needed",
		"Adequate code but requires significant improvements",
		"Code quality is poor, major revisions needed",
	},
}

// Feedback returns the summary sentence for an overall score.
func Feedback(kind criteria.Kind, overall float64) string {
	t := feedback[kind]
	switch {
	case overall >= 0.8:
		return t[0]
	case overall >= 0.6:
		return t[1]
	case overall >= 0.4:
		return t[2]
	default:
		return t[3]
	}
}
