package registry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns a free-text drug name into its lookup form: NFC,
// lower-cased and trimmed. Internal whitespace is kept as typed.
func Normalize(s string) string {
	// A Caser keeps state between calls, so each call gets its own
	lower := cases.Lower(language.Und)
	return strings.TrimSpace(lower.String(norm.NFC.String(s)))
}
