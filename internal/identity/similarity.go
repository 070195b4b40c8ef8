// Package identity implements identity resolution for the client registry:
// fuzzy name scoring, the duplicate decision rule, roster search, duplicate
// scanning, and the pre-create duplicate check. Everything in this package is
// pure computation over an in-memory roster snapshot held by the caller.
package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// NormalizeName prepares a name string for comparison: surrounding whitespace
// is trimmed, the string is case-folded, and internal whitespace runs collapse
// to a single space.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity returns a closeness score in [0, 1] between two name strings.
// Both inputs are normalized first. Two empty strings are vacuously equal
// (1.0); exactly one empty string scores 0.0. Otherwise the score is the
// Levenshtein edit distance expressed as a ratio of the longer string, so
// near-identical strings (typos, minor spelling variants) score high while
// genuinely different names score low.
//
// Deterministic and symmetric: Similarity(a, b) == Similarity(b, a).
func Similarity(a, b string) float64 {
	a = NormalizeName(a)
	b = NormalizeName(b)

	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}

	return 1.0 - float64(distance)/float64(maxLen)
}
