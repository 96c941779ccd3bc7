package analysis

import "strings"

// LanguageConfig describes where a language keeps its sources, tests, docs and
// build files inside a generated project.
type LanguageConfig struct {
	SourceExtensions []string
	// TestPatterns are base-name globs ("*_test.go") or path fragments ("tests/").
	TestPatterns []string
	// TestMarkers mark a source file as a test when found in its content.
	TestMarkers      []string
	BuildFiles       []string
	DocFiles         []string
	MainFiles        []string
	ProjectDirs      []string
	MaxLineLength    int
	ComplexityTokens []string
}

var languages = map[string]LanguageConfig{
	"go": {
		SourceExtensions: []string{".go"},
		TestPatterns:     []string{"*_test.go"},
		BuildFiles:       []string{"go.mod", "go.sum", "Makefile"},
		DocFiles:         []string{"README.md", "doc.go"},
		MainFiles:        []string{"main.go", "cmd/*/main.go"},
		ProjectDirs:      []string{"cmd/", "internal/", "pkg/", "test/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "for ", "switch ", "select "},
	},
	"python": {
		SourceExtensions: []string{".py"},
		TestPatterns:     []string{"test_*.py", "*_test.py", "tests/"},
		BuildFiles:       []string{"pyproject.toml", "requirements.txt", "setup.py", "Pipfile"},
		DocFiles:         []string{"README.md", "__init__.py"},
		MainFiles:        []string{"main.py", "__main__.py"},
		ProjectDirs:      []string{"src/", "tests/", "docs/"},
		MaxLineLength:    100,
		ComplexityTokens: []string{"if ", "for ", "while ", "with ", "def "},
	},
	"rust": {
		SourceExtensions: []string{".rs"},
		TestPatterns:     []string{"tests/"},
		TestMarkers:      []string{"#[test]", "#[cfg(test)]"},
		BuildFiles:       []string{"Cargo.toml", "Cargo.lock"},
		DocFiles:         []string{"README.md", "lib.rs"},
		MainFiles:        []string{"main.rs", "src/main.rs", "bin/*"},
		ProjectDirs:      []string{"src/", "tests/", "examples/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "for ", "while ", "match ", "loop "},
	},
	"javascript": {
		SourceExtensions: []string{".js", ".mjs"},
		TestPatterns:     []string{"*.test.js", "*.spec.js", "test/", "__tests__/"},
		BuildFiles:       []string{"package.json", "yarn.lock", "package-lock.json"},
		DocFiles:         []string{"README.md", "index.js"},
		MainFiles:        []string{"index.js", "app.js", "server.js"},
		ProjectDirs:      []string{"src/", "lib/", "test/", "dist/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "for(", "while ", "switch "},
	},
	"typescript": {
		SourceExtensions: []string{".ts", ".tsx"},
		TestPatterns:     []string{"*.test.ts", "*.spec.ts", "test/", "__tests__/"},
		BuildFiles:       []string{"package.json", "tsconfig.json"},
		DocFiles:         []string{"README.md", "index.ts"},
		MainFiles:        []string{"index.ts", "app.ts", "main.ts"},
		ProjectDirs:      []string{"src/", "lib/", "test/", "dist/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "for(", "while ", "switch "},
	},
	"java": {
		SourceExtensions: []string{".java"},
		TestPatterns:     []string{"*Test.java", "src/test/"},
		BuildFiles:       []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		DocFiles:         []string{"README.md"},
		MainFiles:        []string{"src/main/java/*/Main.java", "Main.java"},
		ProjectDirs:      []string{"src/main/", "src/test/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "for(", "while ", "switch "},
	},
	"csharp": {
		SourceExtensions: []string{".cs"},
		TestPatterns:     []string{"*Tests.cs", "*Test.cs", "tests/"},
		BuildFiles:       []string{"*.csproj", "*.sln"},
		DocFiles:         []string{"README.md"},
		MainFiles:        []string{"Program.cs", "src/*/Program.cs"},
		ProjectDirs:      []string{"src/", "tests/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "foreach ", "while ", "switch "},
	},
	"cpp": {
		SourceExtensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".h"},
		TestPatterns:     []string{"*_test.cpp", "test_*.cpp", "tests/"},
		BuildFiles:       []string{"CMakeLists.txt", "Makefile", "meson.build"},
		DocFiles:         []string{"README.md"},
		MainFiles:        []string{"main.cpp", "src/main.cpp"},
		ProjectDirs:      []string{"src/", "include/", "tests/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "for(", "while ", "switch "},
	},
	"c": {
		SourceExtensions: []string{".c", ".h"},
		TestPatterns:     []string{"*_test.c", "test_*.c", "tests/"},
		BuildFiles:       []string{"Makefile", "CMakeLists.txt", "meson.build"},
		DocFiles:         []string{"README.md"},
		MainFiles:        []string{"main.c", "src/main.c"},
		ProjectDirs:      []string{"src/", "include/", "tests/"},
		MaxLineLength:    120,
		ComplexityTokens: []string{"if ", "if(", "for ", "for(", "while ", "switch "},
	},
}

// Lookup returns the configuration for a language (case-insensitive).
func Lookup(language string) (LanguageConfig, bool) {
	cfg, ok := languages[strings.ToLower(strings.TrimSpace(language))]
	return cfg, ok
}
