package registry

import (
	"regexp"
	"strings"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separators    = regexp.MustCompile(`[_\s]+`)
)

// Slug converts a handler identifier to a kebab-case path segment,
// e.g. "getUserProfile" -> "get-user-profile".
func Slug(name string) string {
	s := camelBoundary.ReplaceAllString(name, "${1}-${2}")
	s = separators.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// InferPath returns "/" + Slug(name), or "" for an empty name
func InferPath(name string) string {
	slug := Slug(name)
	if slug == "" {
		return ""
	}
	return "/" + slug
}
