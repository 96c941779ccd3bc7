package criteria

import (
	"conclave/internal/analysis"
	"conclave/internal/outline"
)

// Kind is the artifact family a criterion scores.
type Kind string

const (
	KindDesign  Kind = "design"
	KindFeature Kind = "feat"
	KindCode    Kind = "dev"
)

// Kinds lists every artifact kind in command order.
func Kinds() []Kind {
	return []Kind{KindDesign, KindFeature, KindCode}
}

// Criterion is one named scoring heuristic.
type Criterion interface {
	// ID is "<kind>.<name>", unique across the registry.
	ID() string
	Kind() Kind
	// Name is the key used in score maps and weight tables.
	Name() string
	Title() string
	Description() string

	// Evaluate must be pure: identical artifacts yield identical results.
	Evaluate(a *Artifact) Result
}

// Artifact is one candidate as seen by the criteria.
type Artifact struct {
	Kind     Kind
	Language string
	// Content is the document text (design and feat).
	Content string
	// Files is the generated bundle (dev), relative path -> content.
	Files map[string]string
	// Expected is the normalized subsection list a feat document must keep.
	Expected []string

	metrics   *analysis.Metrics
	structure *outline.Validation
}

// CodeMetrics returns the static analysis of Files, computed once.
func (a *Artifact) CodeMetrics() analysis.Metrics {
	if a.metrics == nil {
		m := analysis.Analyze(a.Files, a.Language)
		a.metrics = &m
	}
	return *a.metrics
}

// Structure returns the structural validation of Content against Expected,
// computed once.
func (a *Artifact) Structure() outline.Validation {
	if a.structure == nil {
		v := outline.Validate(a.Content, a.Expected)
		a.structure = &v
	}
	return *a.structure
}
