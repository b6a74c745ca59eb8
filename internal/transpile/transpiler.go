// Package transpile turns a Markdown syntax tree into the styled HTML used by
// the blog pages. Besides the tree walk it hosts the two document passes the
// walk depends on: link reference resolution and list pre-extraction.
package transpile

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/starford/quire/internal/syntax"
)

const (
	linkClass      = "text-gruvbox-blue hover:text-gruvbox-aqua"
	codeSpanClass  = "bg-gruvbox-bg1 text-gruvbox-yellow px-2 py-1 rounded font-mono text-sm"
	blockquoteOpen = `<blockquote class="border-l-4 border-gruvbox-gray pl-4 my-4 italic">`
	bioRule        = `<hr class="border-t border-gruvbox-gray my-8">`
)

// Option configures a Transpiler.
type Option func(*Transpiler)

// WithIdentity sets the profile links rendered in the bio header.
func WithIdentity(id Identity) Option {
	return func(t *Transpiler) {
		t.identity = id
	}
}

// WithLogger sets the logger used for diagnostics such as unknown image
// attributes.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transpiler) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transpiler renders syntax trees to HTML. It holds configuration only and is
// safe for concurrent use; every call to Transpile gets its own State.
type Transpiler struct {
	identity Identity
	logger   *slog.Logger
}

// New creates a Transpiler with the default identity and logger.
func New(opts ...Option) *Transpiler {
	t := &Transpiler{
		identity: DefaultIdentity(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transpile renders the whole tree. links resolves reference-style links and
// images; lists supplies the items of every list, keyed by its start line.
// Nodes whose text cannot be extracted contribute nothing.
func (t *Transpiler) Transpile(tree *syntax.Tree, links LinkReferenceTable, lists ListTable) string {
	if tree == nil || tree.Root == nil {
		return ""
	}
	var out strings.Builder
	w := &walker{
		out:      &out,
		source:   tree.Source,
		links:    links,
		lists:    lists,
		state:    NewState(),
		identity: t.identity,
		logger:   t.logger,
	}
	w.visit(tree.Root)
	return out.String()
}

type walker struct {
	out      *strings.Builder
	source   []byte
	links    LinkReferenceTable
	lists    ListTable
	state    *State
	identity Identity
	logger   *slog.Logger
}

func (w *walker) visit(n *syntax.Node) {
	switch n.Kind {
	case syntax.KindDocument:
		w.children(n)
	case syntax.KindLinkReferenceDefinition:
	case syntax.KindList:
		w.list(n)
	case syntax.KindATXHeading, syntax.KindSetextHeading:
		w.heading(n)
	case syntax.KindParagraph:
		w.paragraph(n)
	case syntax.KindLink:
		w.link(n)
	case syntax.KindImage:
		w.image(n)
	case syntax.KindStrongEmphasis:
		w.inline(n, "strong", "font-bold")
	case syntax.KindEmphasis:
		w.inline(n, "em", "italic")
	case syntax.KindStrikethrough:
		w.inline(n, "del", "line-through")
	case syntax.KindCodeSpan, "code":
		if text, err := n.Text(); err == nil {
			fmt.Fprintf(w.out, `<code class="%s">%s</code>`, codeSpanClass, text)
		}
	case syntax.KindFencedCodeBlock:
		w.fencedCode(n)
	case syntax.KindIndentedCodeBlock:
		w.indentedCode(n)
	case syntax.KindBlockQuote:
		w.out.WriteString(blockquoteOpen)
		w.children(n)
		w.out.WriteString("</blockquote>")
	case syntax.KindThematicBreak:
		w.out.WriteString("<hr>\n")
	case syntax.KindHardLineBreak:
		w.out.WriteString("<br>\n")
	case syntax.KindURIAutolink, syntax.KindEmailAutolink:
		w.autolink(n)
	default:
		w.fallback(n)
	}
}

func (w *walker) children(n *syntax.Node) {
	for _, c := range n.Children {
		w.visit(c)
	}
}

// fallback emits the raw text of nodes without a dedicated rule. List-family
// nodes are owned by their list and never emitted on their own.
func (w *walker) fallback(n *syntax.Node) {
	if syntax.IsListKind(n.Kind) {
		return
	}
	if text, err := n.Text(); err == nil {
		w.out.WriteString(text)
		return
	}
	w.children(n)
}

func (w *walker) list(n *syntax.Node) {
	tag := "ul"
	first := n.Child(syntax.KindListItem)
	if first != nil {
		if marker, ok := first.ChildText(syntax.KindListMarker); ok && marker != "" && isASCIIDigit(marker[0]) {
			tag = "ol"
		}
	}

	line := n.StartLine()
	prev := w.state.ListContext
	w.state.ListContext = strconv.Itoa(line)
	defer func() { w.state.ListContext = prev }()

	fmt.Fprintf(w.out, "<%s class=\"pl-6\">\n", tag)
	if items, ok := w.lists.Items(line); ok && line >= 0 {
		for _, item := range items {
			fmt.Fprintf(w.out, "<li>%s</li>\n", item)
		}
	} else {
		fmt.Fprintf(w.out, "<li>%s</li>\n", fallbackItem(first))
	}
	fmt.Fprintf(w.out, "</%s>\n", tag)
}

// fallbackItem returns the raw text of item without its marker.
func fallbackItem(item *syntax.Node) string {
	if item == nil {
		return ""
	}
	text, err := item.Text()
	if err != nil {
		return ""
	}
	if marker := item.Child(syntax.KindListMarker); marker != nil && marker.HasRange() {
		if cut := marker.End - item.Start; cut >= 0 && cut <= len(text) {
			text = text[cut:]
		}
	}
	return strings.TrimSpace(text)
}

func (w *walker) heading(n *syntax.Node) {
	level := 1
	if marker := n.ChildMatching(syntax.IsATXMarker); marker != nil {
		if text, err := marker.Text(); err == nil {
			level = len(text)
		}
	} else if n.Child(syntax.KindSetextH2Underline) != nil {
		level = 2
	}
	content := n.Child(syntax.KindHeadingContent)

	if level == 1 && w.state.FirstHeading {
		w.state.FirstHeading = false
		var title string
		if content != nil {
			title, _ = content.Text()
		}
		writeBioHeader(w.out, title, w.identity)
		return
	}

	fmt.Fprintf(w.out, `<h%d class="text-%s text-gruvbox-yellow font-normal mt-8 mb-6 relative">`, level, headingSize(level))
	if content != nil {
		w.children(content)
	}
	fmt.Fprintf(w.out, "</h%d>\n", level)
}

func (w *walker) paragraph(n *syntax.Node) {
	if w.state.inList() {
		return
	}

	if w.state.FirstParagraph && !w.state.FirstHeading {
		w.state.FirstParagraph = false
		text, err := n.Text()
		if err != nil {
			var sb strings.Builder
			for _, c := range n.Children {
				if t, err := c.Text(); err == nil {
					sb.WriteString(t)
				}
			}
			text = sb.String()
		}
		fmt.Fprintf(w.out, "<p class=\"cursor\">%s</p>\n", text)
		w.out.WriteString(bioRule + "\n")
		return
	}

	w.out.WriteString(`<p class="my-4">`)
	w.children(n)
	w.out.WriteString("</p>\n")
}

func (w *walker) link(n *syntax.Node) {
	text, _ := n.ChildText(syntax.KindLinkText)
	title, _ := n.ChildText(syntax.KindLinkTitle)
	title = strings.Trim(strings.Trim(title, `"`), "'")

	url, ok := n.ChildText(syntax.KindLinkDestination)
	if !ok {
		label, hasLabel := n.ChildText(syntax.KindLinkLabel)
		label = strings.TrimSuffix(strings.TrimPrefix(label, "["), "]")
		if !hasLabel || label == "" {
			label = text
		}
		ref, found := w.links.Lookup(label)
		if !found {
			w.fallback(n)
			return
		}
		url = ref.Destination
		if title == "" {
			title = ref.Title
		}
	}

	fmt.Fprintf(w.out, `<a href="%s" title="%s" class="%s">%s</a>`, url, title, linkClass, text)
}

func (w *walker) autolink(n *syntax.Node) {
	dest, ok := n.ChildText(syntax.KindLinkDestination)
	if !ok {
		w.fallback(n)
		return
	}
	href := dest
	if n.Kind == syntax.KindEmailAutolink && !strings.HasPrefix(dest, "mailto:") {
		href = "mailto:" + dest
	}
	fmt.Fprintf(w.out, `<a href="%s" class="%s">%s</a>`, href, linkClass, dest)
}

// inline wraps the transpiled children of n, minus delimiters, in tag.
func (w *walker) inline(n *syntax.Node, tag, class string) {
	fmt.Fprintf(w.out, `<%s class="%s">`, tag, class)
	for _, c := range n.Children {
		if c.Kind != syntax.KindEmphasisDelimiter {
			w.visit(c)
		}
	}
	fmt.Fprintf(w.out, "</%s>", tag)
}

func (w *walker) fencedCode(n *syntax.Node) {
	lang := "plaintext"
	if info, ok := n.ChildText(syntax.KindInfoString); ok {
		if fields := strings.Fields(info); len(fields) > 0 {
			lang = fields[0]
		}
	}
	content, _ := n.ChildText(syntax.KindCodeFenceContent)
	content = strings.TrimRight(strings.TrimLeft(content, "\r\n"), " \t\r\n")
	writeCodeBlock(w.out, lang, content)
}

func (w *walker) indentedCode(n *syntax.Node) {
	text, err := n.Text()
	if err != nil {
		return
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = dedent(strings.TrimSuffix(line, "\r"), 4)
	}
	writeCodeBlock(w.out, "plaintext", strings.Join(lines, "\n"))
}

func writeCodeBlock(out *strings.Builder, lang, content string) {
	fmt.Fprintf(out, `<pre class="line-numbers"><code class="language-%s">%s</code></pre>`, lang, escapeHTML(content))
}

// dedent removes up to width leading spaces, or a single leading tab.
func dedent(line string, width int) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	i := 0
	for i < width && i < len(line) && line[i] == ' ' {
		i++
	}
	return line[i:]
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
