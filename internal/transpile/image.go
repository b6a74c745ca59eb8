package transpile

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/quire/internal/syntax"
)

const defaultImageClasses = "max-w-full h-auto my-4 rounded-lg shadow-lg"

var imagePresets = map[string]string{
	"avatar":    "w-32 h-32 rounded-full object-cover",
	"banner":    "w-full h-64 object-cover",
	"thumbnail": "w-48 h-48 object-cover rounded",
}

// imageAttrs are the presentation attributes carried by the HTML comment
// placed right before an image.
type imageAttrs struct {
	width   string
	height  string
	classes string
	style   string
}

// imageParts extracts src, alt and title from the raw text of an image.
func imageParts(raw string, links LinkReferenceTable) (src, alt, title string) {
	if open := strings.Index(raw, "["); open >= 0 {
		if end := strings.Index(raw[open:], "]"); end >= 0 {
			alt = strings.TrimSpace(raw[open+1 : open+end])
		}
	}

	if open := strings.Index(raw, "("); open >= 0 {
		if end := strings.Index(raw[open:], ")"); end >= 0 {
			src = raw[open+1 : open+end]
			if q := strings.IndexAny(src, `"'`); q >= 0 {
				src = src[:q]
			}
			src = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(src), "<"), ">")
		}
	}

	if last := strings.LastIndex(raw, `"`); last >= 0 {
		if first := strings.LastIndex(raw[:last], `"`); first >= 0 {
			title = strings.TrimSpace(raw[first+1 : last])
		}
	}

	if src == "" && links != nil {
		label := alt
		if open := strings.LastIndex(raw, "["); open > 0 && strings.HasSuffix(raw, "]") && open+1 < len(raw)-1 {
			label = raw[open+1 : len(raw)-1]
		}
		if ref, ok := links.Lookup(label); ok {
			src = ref.Destination
			if title == "" {
				title = ref.Title
			}
		}
	}
	return src, alt, title
}

// precedingComment returns the body of an HTML comment that ends right before
// offset, separated from it by whitespace only.
func precedingComment(source []byte, offset int) (string, bool) {
	before := strings.TrimRight(string(source[:offset]), " \t\r\n")
	if !strings.HasSuffix(before, "-->") {
		return "", false
	}
	open := strings.LastIndex(before, "<!--")
	if open < 0 {
		return "", false
	}
	body := before[open+len("<!--") : len(before)-len("-->")]
	return strings.TrimSpace(body), true
}

// tokenizeAttrs splits on spaces that are not inside double quotes. Quote
// characters are kept in the tokens.
func tokenizeAttrs(s string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			current.WriteRune(r)
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func parseImageAttrs(comment string, logger *slog.Logger) imageAttrs {
	attrs := imageAttrs{classes: defaultImageClasses}
	for _, token := range tokenizeAttrs(comment) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		unquoted := strings.Trim(value, `"`)

		switch key {
		case "width":
			attrs.width = unquoted
		case "height":
			attrs.height = unquoted
		case "class":
			attrs.classes += " " + unquoted
		case "style":
			if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
				attrs.style = value[1 : len(value)-1]
			} else {
				attrs.style = value
			}
		case "preset":
			if classes, ok := imagePresets[unquoted]; ok {
				attrs.classes = classes
			}
		default:
			logger.Debug("unknown image attribute",
				slog.String("key", key),
				slog.String("value", value))
		}
	}
	return attrs
}

func (w *walker) image(n *syntax.Node) {
	raw, err := n.Text()
	if err != nil {
		return
	}
	src, alt, title := imageParts(raw, w.links)

	attrs := imageAttrs{classes: defaultImageClasses}
	if comment, ok := precedingComment(w.source, n.Start); ok {
		attrs = parseImageAttrs(comment, w.logger)
	}

	fmt.Fprintf(w.out, `<img src="%s" alt="%s" title="%s" class="%s"`, src, alt, title, attrs.classes)
	if attrs.width != "" {
		fmt.Fprintf(w.out, ` width="%s"`, attrs.width)
	}
	if attrs.height != "" {
		fmt.Fprintf(w.out, ` height="%s"`, attrs.height)
	}
	if attrs.style != "" {
		fmt.Fprintf(w.out, ` style="%s"`, attrs.style)
	}
	w.out.WriteString(">")
}
