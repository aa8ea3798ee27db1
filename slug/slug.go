// Package slug turns names and titles into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Generate lowercases s, folds accented letters to ASCII and joins the
// remaining letter/digit runs with single hyphens.
// Example: "Crème Brûlée, 2nd Edition" -> "creme-brulee-2nd-edition"
func Generate(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Make is Generate with a fallback for input that has no ASCII-foldable
// characters at all (for example a title written entirely in CJK): the
// result is prefix followed by a short random suffix.
func Make(s, prefix string) string {
	if out := Generate(s); out != "" {
		return out
	}
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}
