package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizePlain removes all markup and returns plain text, for single-line
// fields such as titles and names. Entities are decoded so "&" stays "&".
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(input)))
}
