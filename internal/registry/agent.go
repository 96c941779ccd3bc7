package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capabilities an agent can be selected for.
const (
	CapArchitecture   = "architecture"
	CapImplementation = "implementation"
	CapCodeReview     = "code_review"
	CapMicroservices  = "microservices"
	CapTesting        = "testing"
	CapDocumentation  = "documentation"
)

// Agent is one worker definition found in the agents directory.
type Agent struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Model        string   `json:"model,omitempty"`
	Tools        []string `json:"tools,omitempty"`
	// Language is the agent's language affinity, empty when it has none.
	Language string `json:"language,omitempty"`
}

// Has reports whether the agent declares or was inferred to have capability.
func (a Agent) Has(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type frontmatter struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	Model        string     `yaml:"model"`
	Tools        stringList `yaml:"tools"`
	Capabilities stringList `yaml:"capabilities"`
	Language     string     `yaml:"language"`
}

// stringList accepts either a YAML sequence or a comma separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = splitList(n.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a string", n.Line)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const maxDescription = 200

// ParseAgentFile reads an agent definition. Frontmatter keys win over the
// keyword inference applied to the body.
func ParseAgentFile(path string) (Agent, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Agent{}, err
	}
	return parseAgent(path, b)
}

func parseAgent(path string, b []byte) (Agent, error) {
	var fm frontmatter
	meta, body := splitFrontmatter(b)
	if meta != nil {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return Agent{}, fmt.Errorf("parse frontmatter of %s: %w", path, err)
		}
	}
	content := strings.TrimSpace(string(body))

	a := Agent{
		Name:        fm.Name,
		Path:        path,
		Description: fm.Description,
		Model:       fm.Model,
		Tools:       fm.Tools,
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if a.Description == "" {
		a.Description = firstParagraph(content)
	}

	if len(fm.Capabilities) > 0 {
		a.Capabilities = fm.Capabilities
	} else {
		a.Capabilities = inferCapabilities(a.Description + " " + content)
	}
	if fm.Language != "" {
		a.Language = strings.ToLower(fm.Language)
	} else {
		a.Language = inferLanguage(a.Name + " " + a.Description + " " + content)
	}
	return a, nil
}

// splitFrontmatter separates a leading "---" fenced YAML block from the body.
// meta is nil when the document has no complete block.
func splitFrontmatter(b []byte) (meta, body []byte) {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(b, []byte("---\n")) {
		return nil, b
	}
	rest := b[4:]
	if bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")) {
		return []byte{}, bytes.TrimPrefix(rest, []byte("---"))
	}
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	if m, ok := bytes.CutSuffix(rest, []byte("\n---")); ok {
		return m, nil
	}
	return nil, b
}

func firstParagraph(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
			continue
		}
		if len(lines) > 0 {
			break
		}
	}
	desc := strings.Join(lines, " ")
	if r := []rune(desc); len(r) > maxDescription {
		desc = string(r[:maxDescription])
	}
	return desc
}

var capabilityKeywords = []struct {
	capability string
	keywords   []string
}{
	{CapArchitecture, []string{"architect", "design", "system design"}},
	{CapImplementation, []string{"implement", "development", "coding", "programming"}},
	{CapCodeReview, []string{"review", "analyze", "audit", "quality"}},
	{CapMicroservices, []string{"microservice", "distributed", "api", "service"}},
	{CapTesting, []string{"test", "unit test", "integration"}},
	{CapDocumentation, []string{"document", "readme", "docs"}},
}

func inferCapabilities(text string) []string {
	text = strings.ToLower(text)
	caps := []string{}
	for _, ck := range capabilityKeywords {
		for _, k := range ck.keywords {
			if strings.Contains(text, k) {
				caps = append(caps, ck.capability)
				break
			}
		}
	}
	return caps
}

var languageTerms = []struct {
	language string
	terms    []string
}{
	{"go", []string{"golang", "go lang", "go programming", "gopher"}},
	{"python", []string{"python", "py", "django", "flask", "fastapi"}},
	{"rust", []string{"rust", "cargo", "rustacean"}},
	{"javascript", []string{"javascript", "js", "node", "npm", "react", "vue"}},
	{"typescript", []string{"typescript", "ts", "angular"}},
	{"java", []string{"java", "spring", "maven", "gradle"}},
	{"csharp", []string{"c#", "csharp", "dotnet", ".net"}},
	{"cpp", []string{"c++", "cpp", "cmake"}},
	{"c", []string{"c programming", "c language"}},
}

// inferLanguage returns the language whose terms occur most often as whole
// words; ties go to the language listed first.
func inferLanguage(text string) string {
	text = strings.ToLower(text)
	best, bestCount := "", 0
	for _, lt := range languageTerms {
		n := 0
		for _, term := range lt.terms {
			n += countWord(text, term)
		}
		if n > bestCount {
			best, bestCount = lt.language, n
		}
	}
	return best
}

func countWord(text, term string) int {
	n := 0
	for i := 0; ; {
		j := strings.Index(text[i:], term)
		if j < 0 {
			return n
		}
		start, end := i+j, i+j+len(term)
		if boundary(text, start-1) && boundary(text, end) {
			n++
		}
		i = start + 1
	}
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
}

// Stats summarises a set of agents by language and capability.
type Stats struct {
	Total        int            `json:"total_agents"`
	ByLanguage   map[string]int `json:"by_language"`
	ByCapability map[string]int `json:"by_capability"`
}

func statsOf(agents []Agent) Stats {
	s := Stats{Total: len(agents), ByLanguage: map[string]int{}, ByCapability: map[string]int{}}
	for _, a := range agents {
		if a.Language != "" {
			s.ByLanguage[a.Language]++
		}
		for _, c := range a.Capabilities {
			s.ByCapability[c]++
		}
	}
	return s
}

func sortByName(agents []Agent) {
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
}
