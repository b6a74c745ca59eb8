package transpile

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeHTML replaces the five characters that are significant in HTML text
// and attribute values.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
