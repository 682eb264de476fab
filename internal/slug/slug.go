// Package slug turns free text into URL-safe and filesystem-safe tokens.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
	nonFilename = regexp.MustCompile(`[^a-z0-9_-]+`)
	multiDash   = regexp.MustCompile(`-{2,}`)
)

// Slugify lower-cases s, collapses every run of non [a-z0-9] characters
// into a single hyphen and trims the edges. Empty input yields "item".
func Slugify(s string) string {
	return sanitize(s, nonSlug)
}

// SafeFilename is Slugify but also keeps underscores.
func SafeFilename(s string) string {
	return sanitize(s, nonFilename)
}

func sanitize(s string, strip *regexp.Regexp) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strip.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "item"
	}
	return s
}
