// Package command parses slash-style command lines such as
// "/design go pomodoro timer" or "/dev feat 1,3".
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"conclave/internal/criteria"
)

// ErrUnknownCommand is returned for a command word other than design, feat
// or dev.
var ErrUnknownCommand = errors.New("unknown command")

// Languages are the target languages recognised as a leading argument.
var Languages = []string{"go", "python", "rust", "javascript", "typescript", "java", "csharp", "cpp", "c"}

var numericSection = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Command is a parsed command line.
type Command struct {
	Kind     criteria.Kind
	Language string
	// Description is the design brief.
	Description string
	// Sections are the target section ids (feat takes one, dev one or more).
	Sections []string
}

// IsLanguage reports whether s names a supported language.
func IsLanguage(s string) bool {
	s = strings.ToLower(s)
	for _, l := range Languages {
		if l == s {
			return true
		}
	}
	return false
}

// IsNumericSection reports whether id is a numbered section like "2" or
// "2.3".
func IsNumericSection(id string) bool {
	return numericSection.MatchString(id)
}

// Parse parses a full command line. A leading slash is optional.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return Command{}, errors.New("empty command")
	}
	args := fields[1:]
	switch kind := criteria.Kind(strings.ToLower(fields[0])); kind {
	case criteria.KindDesign:
		return ParseDesign(args)
	case criteria.KindFeature:
		return ParseFeat(args)
	case criteria.KindCode:
		return ParseDev(args)
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
}

// ParseDesign parses "[language] <description>".
func ParseDesign(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, errors.New("design requires a description")
	}
	c := Command{Kind: criteria.KindDesign}
	if IsLanguage(args[0]) {
		c.Language = strings.ToLower(args[0])
		args = args[1:]
	}
	if len(args) == 0 {
		return Command{}, errors.New("design requires a description after the language")
	}
	c.Description = strings.Join(args, " ")
	return c, nil
}

// ParseFeat parses "<section_id>".
func ParseFeat(args []string) (Command, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return Command{}, errors.New("feat requires a section identifier")
	}
	return Command{Kind: criteria.KindFeature, Sections: []string{args[0]}}, nil
}

// ParseDev parses "[language] feat <section_id[,section_id...]>".
func ParseDev(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, errors.New("dev requires arguments")
	}
	c := Command{Kind: criteria.KindCode}
	if IsLanguage(args[0]) {
		c.Language = strings.ToLower(args[0])
		args = args[1:]
	}
	if len(args) == 0 {
		return Command{}, errors.New("dev requires a target")
	}
	if args[0] != "feat" {
		return Command{}, fmt.Errorf("dev only supports the 'feat' target, got %q", args[0])
	}
	if len(args) < 2 {
		return Command{}, errors.New("dev requires a section identifier after 'feat'")
	}
	c.Sections = SplitSections(args[1])
	if len(c.Sections) == 0 {
		return Command{}, errors.New("dev requires a section identifier after 'feat'")
	}
	return c, nil
}

// SplitSections splits a comma separated id list, dropping empty items.
func SplitSections(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders the command back as a slash command line.
func (c Command) String() string {
	parts := []string{"/" + string(c.Kind)}
	if c.Language != "" {
		parts = append(parts, c.Language)
	}
	switch c.Kind {
	case criteria.KindDesign:
		parts = append(parts, c.Description)
	case criteria.KindFeature:
		parts = append(parts, strings.Join(c.Sections, ","))
	case criteria.KindCode:
		parts = append(parts, "feat", strings.Join(c.Sections, ","))
	}
	return strings.Join(parts, " ")
}
