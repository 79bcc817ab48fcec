// Package slug builds URL and filename safe identifiers from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make lowercases s, strips diacritics and joins alphanumeric runs with sep.
// An empty result is possible when s has no letters or digits.
func Make(s string, sep rune) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if r == '@' {
			if b.Len() > 0 {
				b.WriteRune(sep)
			}
			b.WriteString("at")
			pending = true
			continue
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Filename is Make with an underscore separator and a fallback for empty names.
func Filename(name, fallback string) string {
	if s := Make(name, '_'); s != "" {
		return s
	}
	return fallback
}
