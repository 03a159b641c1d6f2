package utils

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// reservedSlugs collide with fixed routes and can never be used as a profile key.
var reservedSlugs = map[string]struct{}{
	"create":  {},
	"edit":    {},
	"api":     {},
	"storage": {},
	"health":  {},
	"static":  {},
}

// NormalizeSlug trims, lower-cases and joins whitespace runs with "-".
func NormalizeSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	return whitespaceRun.ReplaceAllString(slug, "-")
}

func IsReservedSlug(slug string) bool {
	_, reserved := reservedSlugs[slug]
	return reserved
}

// ValidSlug reports whether a normalized slug can be stored and routed.
func ValidSlug(slug string) bool {
	if slug == "" || IsReservedSlug(slug) {
		return false
	}
	return !strings.ContainsAny(slug, "/?#")
}
