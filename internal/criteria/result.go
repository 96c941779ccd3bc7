package criteria

import "strings"

// Result is the outcome of one criterion on one artifact.
type Result struct {
	CriterionID string   `json:"criterion_id"`
	Score       float64  `json:"score"`
	Strengths   []string `json:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
}

// Tally accumulates a heuristic score and its feedback.
type Tally struct {
	score      float64
	strengths  []string
	weaknesses []string
}

func NewTally(base float64) *Tally {
	return &Tally{score: base}
}

// Strength adds delta and records msg as a strength.
func (t *Tally) Strength(delta float64, msg string) {
	t.score += delta
	t.strengths = append(t.strengths, msg)
}

// Weakness subtracts penalty and records msg as a weakness.
func (t *Tally) Weakness(penalty float64, msg string) {
	t.score -= penalty
	t.weaknesses = append(t.weaknesses, msg)
}

// Adjust changes the score without feedback.
func (t *Tally) Adjust(delta float64) {
	t.score += delta
}

// Set overrides the running score.
func (t *Tally) Set(score float64) {
	t.score = score
}

// Result returns the clamped result for criterion id.
func (t *Tally) Result(id string) Result {
	return Result{
		CriterionID: id,
		Score:       Clamp(t.score),
		Strengths:   t.strengths,
		Weaknesses:  t.weaknesses,
	}
}

func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ContainsAny reports whether text contains any of terms.
func ContainsAny(text string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// CountMatches returns how many of terms occur in text.
func CountMatches(text string, terms ...string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}
