package main

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// TemplateFileName is the metadata file expected in every submission directory
const TemplateFileName = "template.txt"

// Canonical field names of a mural template
const (
	FieldTitle       = "title"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldCategory    = "category"
)

var templateLineRegex = regexp.MustCompile(`^(.*?)-\s*(.*?)-$`)

// SkippedLine is a non-blank template line that did not produce a field
type SkippedLine struct {
	Number int
	Text   string
}

// Template holds the fields parsed from one template.txt.
// Field names are stored lower-cased; use Get for lookups.
type Template struct {
	Fields  map[string]string
	Skipped []SkippedLine
}

// ParseTemplate reads and parses a template file. Only I/O failures are errors;
// malformed lines end up in Template.Skipped.
func ParseTemplate(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return ParseTemplateString(string(content)), nil
}

// ParseTemplateString parses template content of the form "<name> - <value> -" per line
func ParseTemplateString(content string) *Template {
	tmpl := &Template{Fields: make(map[string]string)}

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		matches := templateLineRegex.FindStringSubmatch(line)
		if matches == nil {
			tmpl.Skipped = append(tmpl.Skipped, SkippedLine{Number: i + 1, Text: line})
			continue
		}

		name := canonicalFieldName(matches[1])
		if name == "" {
			tmpl.Skipped = append(tmpl.Skipped, SkippedLine{Number: i + 1, Text: line})
			continue
		}
		tmpl.Fields[name] = strings.TrimSpace(matches[2])
	}

	return tmpl
}

func canonicalFieldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the value of a field, matching the name case-insensitively
func (t *Template) Get(name string) string {
	if t == nil {
		return ""
	}
	return t.Fields[canonicalFieldName(name)]
}

// Title is shorthand for Get(FieldTitle)
func (t *Template) Title() string {
	return t.Get(FieldTitle)
}

// Missing returns the required fields that are absent or empty, in the order given
func (t *Template) Missing(required ...string) []string {
	var missing []string
	for _, name := range required {
		if t.Get(name) == "" {
			missing = append(missing, canonicalFieldName(name))
		}
	}
	return missing
}

// Strict returns an error describing every skipped line, or nil when all lines parsed.
func (t *Template) Strict() error {
	if len(t.Skipped) == 0 {
		return nil
	}
	parts := make([]string, 0, len(t.Skipped))
	for _, s := range t.Skipped {
		parts = append(parts, fmt.Sprintf("line %d: %q", s.Number, s.Text))
	}
	return fmt.Errorf("%d unmatched template lines: %s", len(t.Skipped), strings.Join(parts, "; "))
}

// Names returns the parsed field names sorted
func (t *Template) Names() []string {
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
