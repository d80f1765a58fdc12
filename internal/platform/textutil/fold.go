package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the input and strips diacritical marks so that
// "Sillón" and "sillon" compare equal in searches.
func Fold(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(folded)
}

// ContainsFolded reports whether haystack contains needle after accent folding.
func ContainsFolded(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), needle)
}
