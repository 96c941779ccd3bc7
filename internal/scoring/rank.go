package scoring

import (
	"conclave/internal/criteria"
	"sort"
)

// invalidStructurePenalty demotes feature specifications that drop a required
// section below every valid one.
const invalidStructurePenalty = 1.0

// Ranked pairs a candidate's input position with its score.
type Ranked struct {
	Index int
	Score CandidateScore
}

// Rank scores every artifact and orders them best first. Ties keep input
// order.
func Rank(kind criteria.Kind, artifacts []*criteria.Artifact) ([]Ranked, error) {
	ranked := make([]Ranked, 0, len(artifacts))
	for i, a := range artifacts {
		s, err := Score(kind, a)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, Ranked{Index: i, Score: s})
	}

	order(kind, ranked)
	return ranked, nil
}

func order(kind criteria.Kind, ranked []Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return SortKey(kind, ranked[i].Score) > SortKey(kind, ranked[j].Score)
	})
}

// SortKey is the value candidates are ordered by.
func SortKey(kind criteria.Kind, s CandidateScore) float64 {
	if kind == criteria.KindFeature && s.Structure != nil && !s.Structure.Valid {
		return s.Overall - invalidStructurePenalty
	}
	return s.Overall
}
