package analysis

import (
	"fmt"
	"go/parser"
	"go/token"
	"strings"
)

// SyntaxChecker validates the syntax of a single source file without
// compiling or executing it.
type SyntaxChecker interface {
	Check(filename, content string) error
}

// GoSyntax parses Go sources with go/parser.
type GoSyntax struct{}

func (GoSyntax) Check(filename, content string) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, filename, content, parser.AllErrors|parser.SkipObjectResolution)
	return err
}

// BracketBalance checks that (), [] and {} nest correctly, ignoring string
// literals and comments. It is a coarse check for C-family languages.
type BracketBalance struct {
	// Backticks enables `raw` string skipping (JavaScript/TypeScript).
	Backticks bool
}

func (b BracketBalance) Check(filename, content string) error {
	var stack []rune
	line := 1
	runes := []rune(content)
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\n':
			line++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			line++
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
				}
				i++
			}
			i++
		case r == '"' || (r == '`' && b.Backticks):
			i++
			for i < len(runes) && runes[i] != r {
				if runes[i] == '\\' && r != '`' {
					i++
				} else if runes[i] == '\n' {
					line++
				}
				i++
			}
		case r == '\'':
			// Char literals only; a lone quote (Rust lifetime) is left alone.
			if end := charLiteralEnd(runes, i); end > i {
				i = end
			}
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, r)
		case r == ')' || r == ']' || r == '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return fmt.Errorf("%s:%d: unexpected %q", filename, line, r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%s: %d unclosed %q", filename, len(stack), stack[len(stack)-1])
	}
	return nil
}

func charLiteralEnd(runes []rune, start int) int {
	i := start + 1
	if i < len(runes) && runes[i] == '\\' {
		i += 2
	} else {
		i++
	}
	for j := i; j < len(runes) && j <= start+10; j++ {
		if runes[j] == '\'' {
			return j
		}
		if runes[j] == '\n' || runes[j] == ' ' {
			return start
		}
	}
	return start
}

var syntaxCheckers = map[string]SyntaxChecker{
	"go":         GoSyntax{},
	"rust":       BracketBalance{},
	"javascript": BracketBalance{Backticks: true},
	"typescript": BracketBalance{Backticks: true},
	"java":       BracketBalance{},
	"csharp":     BracketBalance{},
	"cpp":        BracketBalance{},
	"c":          BracketBalance{},
}

// CheckerFor returns the syntax strategy for a language, or nil when no static
// pass is available (for example Python).
func CheckerFor(language string) SyntaxChecker {
	return syntaxCheckers[strings.ToLower(strings.TrimSpace(language))]
}
