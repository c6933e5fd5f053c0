package main

import (
	"regexp"
	"strings"
)

var (
	slugWhitespaceRegex = regexp.MustCompile(`\s+`)
	slugInvalidRegex    = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphenRegex     = regexp.MustCompile(`-+`)
)

// generateSlug derives the URL slug stored on a mural entry from its title
func generateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugWhitespaceRegex.ReplaceAllString(slug, "-")
	slug = slugInvalidRegex.ReplaceAllString(slug, "")
	slug = slugHyphenRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
