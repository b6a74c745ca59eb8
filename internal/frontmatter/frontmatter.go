// Package frontmatter extracts post metadata from the leading HTML comment
// block of a Markdown document.
package frontmatter

import (
	"sort"
	"strings"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Metadata maps lowercase keys to trimmed values.
type Metadata map[string]string

// Get returns the value for key, matching case-insensitively.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[strings.ToLower(key)]
	return v, ok
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract reads "key: value" lines from the HTML comment blocks at the very
// top of text. Scanning stops at the first non-empty line outside a comment,
// so metadata must come before any content. Lines without a colon are
// skipped. Extract never fails; a document without front matter yields an
// empty map.
func Extract(text string) Metadata {
	meta := make(Metadata)
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case !inBlock && strings.HasPrefix(trimmed, commentOpen):
			inBlock = true
			if strings.HasSuffix(trimmed, commentClose) {
				if len(trimmed) >= len(commentOpen)+len(commentClose) {
					parseLine(trimmed[len(commentOpen):len(trimmed)-len(commentClose)], meta)
				}
				inBlock = false
			}
		case inBlock && strings.HasSuffix(trimmed, commentClose):
			inBlock = false
		case inBlock:
			parseLine(trimmed, meta)
		case trimmed != "":
			return meta
		}
	}
	return meta
}

func parseLine(line string, meta Metadata) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	meta[key] = strings.TrimSpace(value)
}
