// Package address normalizes property addresses into stable slugs used as
// human-friendly transaction handles.
package address

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	maxSlugLen  = 255
)

// Slug normalizes a property address to a valid slug.
// Rules:
// - Always lower-case
// - Unit markers (#) become "unit", "123 Main St #4B" -> "123-main-st-unit-4b"
// - Commas and periods are dropped, spaces and underscores become hyphens
// - Allowed characters: a-z, 0-9, -
// - Must start with [a-z0-9]; max length 255 bytes
func Slug(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("address cannot be empty")
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "#", " unit ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "_", " ")

	// Collapse whitespace runs into single hyphens.
	s = strings.Join(strings.Fields(s), "-")

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	s = result.String()

	// Collapse hyphen runs left behind by stripped characters.
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if len(s) == 0 || !((s[0] >= 'a' && s[0] <= 'z') || (s[0] >= '0' && s[0] <= '9')) {
		return "", fmt.Errorf("address slug must start with an alphanumeric character")
	}
	if len(s) > maxSlugLen {
		return "", fmt.Errorf("address slug exceeds maximum length of %d bytes", maxSlugLen)
	}
	if !slugPattern.MatchString(s) {
		return "", fmt.Errorf("invalid address slug: %s", s)
	}

	return s, nil
}

// ValidateSlug checks if a string is already a valid slug without normalization
func ValidateSlug(s string) error {
	if s == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if len(s) > maxSlugLen {
		return fmt.Errorf("slug exceeds maximum length of %d bytes", maxSlugLen)
	}
	if !slugPattern.MatchString(s) {
		return fmt.Errorf("invalid slug format: %s", s)
	}
	return nil
}
