package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for matching: lowercase, Unicode compatibility
// decomposition, combining marks stripped. So "Café" and "cafe" compare
// equal, as do the ligature "ﬁ" and "fi". Idempotent, which lets the
// keyword be normalized once per run and compared directly against
// normalized unit text.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	lowered := strings.ToLower(s)
	// Transformers carry state, so build the chain per call rather than
	// sharing one across goroutines.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return folded
}
