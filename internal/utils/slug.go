package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases title, collapses runs of whitespace into a single "-"
// and drops characters that are unsafe in a URL path segment.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFKC.String(strings.TrimSpace(title)) {
		switch {
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingDash = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}
