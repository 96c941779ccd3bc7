package scoring

import (
	"conclave/internal/analysis"
	"conclave/internal/criteria"
	"conclave/internal/outline"
	"fmt"
	"strings"
)

const emptyContent = "Empty candidate content"

// CandidateScore is the weighted evaluation of one candidate.
type CandidateScore struct {
	Overall    float64            `json:"overall_score"`
	Criteria   map[string]float64 `json:"criteria"`
	Feedback   string             `json:"feedback"`
	Strengths  []string           `json:"strengths"`
	Weaknesses []string           `json:"weaknesses"`
	// Structure is set for feature specifications.
	Structure *outline.Validation `json:"structural_validation,omitempty"`
	// Metrics is set for code bundles.
	Metrics *analysis.Metrics `json:"metrics,omitempty"`
}

// Score evaluates a against every weighted criterion of kind. Scoring is
// deterministic; the only error is an unknown kind.
func Score(kind criteria.Kind, a *criteria.Artifact) (CandidateScore, error) {
	table, ok := weights[kind]
	if !ok {
		return CandidateScore{}, fmt.Errorf("unknown artifact kind: %s", kind)
	}
	if a == nil {
		a = &criteria.Artifact{Kind: kind}
	}

	s := CandidateScore{
		Criteria:   make(map[string]float64, len(table)),
		Strengths:  []string{},
		Weaknesses: []string{},
	}
	switch kind {
	case criteria.KindFeature:
		v := a.Structure()
		s.Structure = &v
	case criteria.KindCode:
		m := a.CodeMetrics()
		s.Metrics = &m
	}

	if isEmpty(kind, a) {
		for _, w := range table {
			s.Criteria[w.Criterion] = 0
		}
		s.Weaknesses = append(s.Weaknesses, emptyContent)
		s.Feedback = Feedback(kind, 0)
		return s, nil
	}

	var overall float64
	for _, w := range table {
		c, ok := criteria.Lookup(kind, w.Criterion)
		if !ok {
			s.Criteria[w.Criterion] = 0
			s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("Criterion %s.%s unavailable", kind, w.Criterion))
			continue
		}
		r := c.Evaluate(a)
		score := criteria.Clamp(r.Score)
		s.Criteria[w.Criterion] = score
		s.Strengths = append(s.Strengths, r.Strengths...)
		s.Weaknesses = append(s.Weaknesses, r.Weaknesses...)
		overall += w.Weight * score
	}
	s.Overall = criteria.Clamp(overall)
	s.Feedback = Feedback(kind, s.Overall)
	return s, nil
}

func isEmpty(kind criteria.Kind, a *criteria.Artifact) bool {
	if kind == criteria.KindCode {
		return len(a.Files) == 0
	}
	return strings.TrimSpace(a.Content) == ""
}
