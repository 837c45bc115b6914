// src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all HTML and unprintable characters from free text
// before it is stored. The policy escapes what it keeps, so entities are
// decoded again to store plain text.
func SanitizeText(s string) string {
	return strings.TrimSpace(StripUnprintable(html.UnescapeString(strictHTMLPolicy.Sanitize(s))))
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
