package checks

import (
	"conclave/internal/criteria"
	"fmt"
	"strings"
)

var featLanguagePatterns = map[string]languagePatterns{
	"go": {
		patterns:     []string{"interface", "struct", "goroutine", "channel", "defer", "panic", "recover"},
		antiPatterns: []string{"class", "inheritance", "exception"},
		practices:    []string{"composition", "error handling", "concurrency"},
	},
	"python": {
		patterns:     []string{"class", "decorator", "generator", "context manager", "list comprehension"},
		antiPatterns: []string{"goto", "multiple inheritance abuse"},
		practices:    []string{"pythonic", "pep 8", "duck typing", "zen of python"},
	},
	"rust": {
		patterns:     []string{"ownership", "borrowing", "trait", "enum", "match", "result", "option"},
		antiPatterns: []string{"garbage collection", "null pointer"},
		practices:    []string{"memory safety", "zero-cost abstraction", "fearless concurrency"},
	},
}

type FeatLanguageSpecificity struct{ meta }

func (c *FeatLanguageSpecificity) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)
	lang := strings.ToLower(a.Language)

	if lang == "" {
		if criteria.ContainsAny(content, "language-specific", "idiom", "convention") {
			t.Strength(0.2, "Mentions language-specific considerations")
		}
		return t.Result(c.ID())
	}

	lp, ok := featLanguagePatterns[lang]
	if !ok {
		if strings.Contains(content, lang) {
			t.Strength(0.1, fmt.Sprintf("Mentions %s in context", a.Language))
		}
		return t.Result(c.ID())
	}

	positive := criteria.CountMatches(content, lp.patterns...)
	switch {
	case float64(positive) >= float64(len(lp.patterns))*0.5:
		t.Strength(0.3, fmt.Sprintf("Strong use of %s-specific patterns", a.Language))
	case positive > 0:
		t.Strength(0.1, fmt.Sprintf("Some %s-specific patterns used", a.Language))
	default:
		t.Weakness(0.2, fmt.Sprintf("Limited use of %s-specific patterns", a.Language))
	}
	if criteria.CountMatches(content, lp.antiPatterns...) > 0 {
		t.Weakness(0.2, fmt.Sprintf("Contains %s anti-patterns", a.Language))
	}
	if criteria.CountMatches(content, lp.practices...) > 0 {
		t.Strength(0.2, fmt.Sprintf("Incorporates %s best practices", a.Language))
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&FeatLanguageSpecificity{meta{
		kind:        criteria.KindFeature,
		name:        "language_specificity",
		title:       "Language Specificity",
		description: "How well the specification speaks the target language: its constructs, its practices and the absence of foreign anti-patterns.",
	}})
}
