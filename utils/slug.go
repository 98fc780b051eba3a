package utils

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedDashes = regexp.MustCompile(`-{2,}`)
)

// Slugify normalizes a display name into a URL slug. Two names that
// normalize to the same slug collide on the unique constraint; callers
// surface that as a conflict rather than overwriting.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = repeatedDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
