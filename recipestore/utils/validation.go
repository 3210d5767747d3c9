package utils

import (
	"regexp"
	"strings"
)

var (
	// ValidHexColorRegex validates tag colors like #49B64E
	ValidHexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	// ValidSlugRegex validates URL-safe slugs
	ValidSlugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// ValidUsernameRegex validates usernames
	ValidUsernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

// IsValidHexColor reports whether color is a #RRGGBB hex code.
func IsValidHexColor(color string) bool {
	return ValidHexColorRegex.MatchString(color)
}

// IsValidSlug reports whether slug is lowercase, URL-safe and non-empty.
func IsValidSlug(slug string) bool {
	return ValidSlugRegex.MatchString(slug)
}

// IsValidUsername reports whether username uses only word characters and
// the @/./+/- set, matching what the web layer accepts.
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 150 {
		return false
	}
	return ValidUsernameRegex.MatchString(username)
}

// GenerateSlug generates a URL-safe slug from a name
func GenerateSlug(name string) string {
	// Convert to lowercase
	slug := strings.ToLower(name)

	// Replace spaces and special characters with dashes
	reg := regexp.MustCompile(`[^a-z0-9]+`)
	slug = reg.ReplaceAllString(slug, "-")

	// Remove leading and trailing dashes
	slug = strings.Trim(slug, "-")

	return slug
}

// NormalizeHexColor uppercases the hex digits of a valid color so
// uniqueness comparisons are stable; invalid input is returned unchanged.
func NormalizeHexColor(color string) string {
	if !IsValidHexColor(color) {
		return color
	}
	return "#" + strings.ToUpper(color[1:])
}
