package format

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters that break HTML parse mode.
// User-supplied values must pass through here before interpolation.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
