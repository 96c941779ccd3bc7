package workflow

import (
	"fmt"
	"strings"
)

func designPrompt(description, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a %ssystem based on this description:\n\n%s\n\n", withSpace(language), description)
	b.WriteString(`Provide a comprehensive architectural design document with:
1. System overview and architecture
2. Core components and their responsibilities
3. Data models and interfaces
4. Technology stack and dependencies
5. Implementation considerations

`)
	b.WriteString("Focus on creating a well-structured, implementable design")
	if language != "" {
		fmt.Fprintf(&b, " that follows %s best practices", language)
	}
	b.WriteString(".\n")
	return b.String()
}

func featPrompt(sectionID, appMD, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate detailed implementation specifications for section %s.\n\n", sectionID)
	if appMD != "" {
		b.WriteString("Context from app.md (also available as the input file app.md):\n\n")
		b.WriteString(appMD)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, `Create a comprehensive implementation specification that:
1. Preserves exact subsection structure from the original section
2. Provides detailed implementation guidance
3. Includes specific %scode patterns and approaches
4. Specifies data structures, algorithms, and interfaces
5. Addresses error handling and edge cases

`, withSpace(language))
	b.WriteString("Ensure the output maintains structural integrity")
	if language != "" {
		fmt.Fprintf(&b, " and follows %s best practices", language)
	}
	b.WriteString(". Write the specification to standard output.\n")
	return b.String()
}

func devPrompt(specFiles []string, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate working %s code from these feature specifications:\n\n", language)
	fmt.Fprintf(&b, "Feature specifications: %s\n\n", strings.Join(specFiles, ", "))
	b.WriteString("The specification files are in the working directory.\n\n")
	fmt.Fprintf(&b, `Create a complete, working codebase that:
1. Implements all specified features with proper %[1]s idioms
2. Includes comprehensive test suites
3. Provides proper documentation and comments
4. Uses appropriate project structure for %[1]s
5. Includes build and deployment configurations

Write every file into the working directory. Focus on creating production-ready, well-tested code that follows %[1]s best practices.
`, language)
	return b.String()
}

func withSpace(s string) string {
	if s == "" {
		return ""
	}
	return s + " "
}
