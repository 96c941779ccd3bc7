package checks

import (
	"conclave/internal/criteria"
	"fmt"
	"strings"
)

var designLanguagePatterns = map[string]languagePatterns{
	"go": {
		patterns:     []string{"interface", "struct", "goroutine", "channel", "package"},
		antiPatterns: []string{"inheritance", "class", "exception"},
		practices:    []string{"composition", "small interfaces", "error handling", "concurrency"},
	},
	"python": {
		patterns:     []string{"class", "decorator", "context manager", "generator", "async/await"},
		antiPatterns: []string{"global variables", "deep inheritance"},
		practices:    []string{"pep 8", "type hints", "virtual environments", "docstrings"},
	},
	"rust": {
		patterns:     []string{"ownership", "borrowing", "trait", "enum", "match"},
		antiPatterns: []string{"unsafe blocks without justification", "clone() overuse"},
		practices:    []string{"zero-cost abstractions", "memory safety", "error handling"},
	},
	"javascript": {
		patterns:     []string{"promise", "async/await", "closure", "prototype", "module"},
		antiPatterns: []string{"global pollution", "callback hell", "var usage"},
		practices:    []string{"es6+", "immutability", "functional programming", "testing"},
	},
}

type DesignLanguageIdioms struct{ meta }

func (c *DesignLanguageIdioms) Evaluate(a *criteria.Artifact) criteria.Result {
	t := criteria.NewTally(0.5)
	content := strings.ToLower(a.Content)
	lang := strings.ToLower(a.Language)

	lp, known := designLanguagePatterns[lang]
	if !known {
		if criteria.ContainsAny(content, "best practice", "convention", "standard", "idiomatic") {
			t.Strength(0.2, "Mentions best practices and conventions")
		} else {
			t.Weakness(0.1, "No mention of language-specific best practices")
		}
		return t.Result(c.ID())
	}

	matches := criteria.CountMatches(content, lp.patterns...)
	switch {
	case float64(matches) >= float64(len(lp.patterns))*0.7:
		t.Strength(0.3, fmt.Sprintf("Strong use of %s idioms and patterns", a.Language))
	case matches > 0:
		t.Strength(0.1, fmt.Sprintf("Some use of %s patterns", a.Language))
	default:
		t.Weakness(0.2, fmt.Sprintf("Limited use of %s-specific patterns", a.Language))
	}

	if criteria.CountMatches(content, lp.antiPatterns...) > 0 {
		t.Weakness(0.2, fmt.Sprintf("Contains %s anti-patterns", a.Language))
	} else {
		t.Strength(0.1, fmt.Sprintf("Avoids common %s anti-patterns", a.Language))
	}

	practices := criteria.CountMatches(content, lp.practices...)
	switch {
	case float64(practices) >= float64(len(lp.practices))*0.5:
		t.Strength(0.2, fmt.Sprintf("Incorporates %s best practices", a.Language))
	case practices > 0:
		t.Strength(0.1, fmt.Sprintf("Some %s best practices mentioned", a.Language))
	default:
		t.Weakness(0.1, fmt.Sprintf("Limited discussion of %s best practices", a.Language))
	}

	return t.Result(c.ID())
}

func init() {
	criteria.Register(&DesignLanguageIdioms{meta{
		kind:        criteria.KindDesign,
		name:        "language_idioms",
		title:       "Language Idiom Fit",
		description: "Rewards designs that use the target language's idioms and best practices and avoid its anti-patterns. Without a known language, rewards any mention of conventions.",
	}})
}
