// Package analysis computes static metrics over a generated code bundle held
// in memory as relative path -> content. Nothing is compiled or executed.
package analysis

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// Metrics summarises a code bundle for the code scorer.
type Metrics struct {
	TotalFiles     int      `json:"total_files"`
	LinesOfCode    int      `json:"lines_of_code"`
	TestFiles      int      `json:"test_files"`
	HasDocs        bool     `json:"has_documentation"`
	HasBuildConfig bool     `json:"has_build_config"`
	SyntaxErrors   []string `json:"syntax_errors,omitempty"`
	CodeSmells     []string `json:"code_smells,omitempty"`
	Complexity     float64  `json:"complexity_score"`
	// Dirs are the expected project directories present in the bundle.
	Dirs []string `json:"project_dirs,omitempty"`
	// ExpectedDirs is the number of project directories the language expects.
	ExpectedDirs int  `json:"expected_dirs"`
	HasEntry     bool `json:"has_entry_point"`
}

var incompleteMarkers = []string{"TODO", "FIXME", "HACK"}

// Analyze computes Metrics for files written in language. Unknown languages
// produce zero-valued metrics except for documentation detection.
func Analyze(files map[string]string, language string) Metrics {
	cfg, _ := Lookup(language)
	checker := CheckerFor(language)

	var m Metrics
	paths := sortedPaths(files)

	var complexity float64
	for _, p := range paths {
		if !hasExtension(p, cfg.SourceExtensions) {
			continue
		}
		content := files[p]
		m.TotalFiles++
		m.LinesOfCode += countNonBlank(content)

		if isTestFile(p, content, cfg) {
			m.TestFiles++
		}
		if checker != nil {
			if err := checker.Check(p, content); err != nil {
				m.SyntaxErrors = append(m.SyntaxErrors, fmt.Sprintf("Syntax error: %v", err))
			}
		}
		smells, c := scanLines(p, content, cfg, language)
		m.CodeSmells = append(m.CodeSmells, smells...)
		complexity += c
	}
	if m.TotalFiles > 0 {
		m.Complexity = complexity / float64(m.TotalFiles)
	}

	m.HasDocs = hasDocumentation(files, paths, cfg)
	m.HasBuildConfig = anyRootMatch(files, paths, cfg.BuildFiles)
	m.ExpectedDirs = len(cfg.ProjectDirs)
	for _, dir := range cfg.ProjectDirs {
		if hasDir(paths, dir) {
			m.Dirs = append(m.Dirs, dir)
		}
	}
	m.HasEntry = anyRootMatch(files, paths, cfg.MainFiles)
	return m
}

func scanLines(p, content string, cfg LanguageConfig, language string) ([]string, float64) {
	var smells []string
	var complexity float64
	maxLen := cfg.MaxLineLength
	if maxLen == 0 {
		maxLen = 120
	}
	missingErrCheck := strings.EqualFold(language, "go") &&
		strings.Contains(content, "err :=") && !strings.Contains(content, "if err != nil")

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, tok := range cfg.ComplexityTokens {
			if strings.HasPrefix(trimmed, tok) || strings.Contains(trimmed, " "+tok) {
				complexity++
				break
			}
		}
		if missingErrCheck && strings.Contains(line, "err :=") {
			smells = append(smells, fmt.Sprintf("Potential missing error handling at %s:%d", p, i+1))
		}
		if len(line) > maxLen {
			smells = append(smells, fmt.Sprintf("Long line %s:%d: %d characters", p, i+1, len(line)))
		}
		upper := strings.ToUpper(trimmed)
		for _, marker := range incompleteMarkers {
			if strings.Contains(upper, marker) {
				smells = append(smells, fmt.Sprintf("Incomplete code marker at %s:%d", p, i+1))
				break
			}
		}
	}
	return smells, complexity
}

func isTestFile(p, content string, cfg LanguageConfig) bool {
	base := path.Base(p)
	for _, pattern := range cfg.TestPatterns {
		if strings.Contains(pattern, "*") {
			if ok, _ := path.Match(pattern, base); ok {
				return true
			}
			continue
		}
		if strings.Contains(p, pattern) {
			return true
		}
	}
	for _, marker := range cfg.TestMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

func hasDocumentation(files map[string]string, paths []string, cfg LanguageConfig) bool {
	docFiles := cfg.DocFiles
	if len(docFiles) == 0 {
		docFiles = []string{"README.md"}
	}
	for _, doc := range docFiles {
		if _, ok := files[doc]; ok {
			return true
		}
	}

	// More than 10% comment lines across sources also counts.
	var total, comments int
	for _, p := range paths {
		if !hasExtension(p, cfg.SourceExtensions) {
			continue
		}
		for _, line := range strings.Split(files[p], "\n") {
			total++
			s := strings.TrimSpace(line)
			if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "#") || strings.HasPrefix(s, `"""`) {
				comments++
			}
		}
	}
	return total > 0 && float64(comments)/float64(total) > 0.1
}

// anyRootMatch reports whether any path matches one of the patterns exactly or
// as a path.Match glob relative to the bundle root.
func anyRootMatch(files map[string]string, paths []string, patterns []string) bool {
	for _, pattern := range patterns {
		if !strings.Contains(pattern, "*") {
			if _, ok := files[pattern]; ok {
				return true
			}
			continue
		}
		for _, p := range paths {
			if ok, _ := path.Match(pattern, p); ok {
				return true
			}
		}
	}
	return false
}

func hasDir(paths []string, dir string) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func hasExtension(p string, exts []string) bool {
	ext := path.Ext(p)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func countNonBlank(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
