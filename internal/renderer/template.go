package renderer

import (
	"strings"

	"github.com/starford/quire/internal/frontmatter"
)

// DefaultTitle replaces {title} when a document carries no title metadata.
const DefaultTitle = "Blog Post"

// ApplyTemplate fills the page template. {title} is replaced first, then
// every metadata key k replaces {k}, and {content} is replaced last.
// Replacement is literal, so a value that contains another placeholder is
// itself substituted by later steps.
func ApplyTemplate(template, content string, metadata frontmatter.Metadata) string {
	return applyTemplate(template, content, metadata, DefaultTitle)
}

func applyTemplate(template, content string, metadata frontmatter.Metadata, fallbackTitle string) string {
	title, ok := metadata["title"]
	if !ok {
		title = fallbackTitle
	}
	result := strings.ReplaceAll(template, "{title}", title)

	for _, key := range metadata.Keys() {
		result = strings.ReplaceAll(result, "{"+key+"}", metadata[key])
	}

	return strings.ReplaceAll(result, "{content}", content)
}
