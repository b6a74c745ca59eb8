package syntax

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNoText is returned when a node's byte range cannot be turned into text.
var ErrNoText = errors.New("syntax: node has no extractable text")

// Node kinds. The set is open: the transpiler falls back to a default rule
// for any kind it does not handle explicitly.
const (
	KindDocument                = "document"
	KindATXHeading              = "atx_heading"
	KindHeadingContent          = "heading_content"
	KindSetextHeading           = "setext_heading"
	KindSetextH1Underline       = "setext_h1_underline"
	KindSetextH2Underline       = "setext_h2_underline"
	KindParagraph               = "paragraph"
	KindList                    = "list"
	KindListItem                = "list_item"
	KindListMarker              = "list_marker"
	KindBlockQuote              = "block_quote"
	KindFencedCodeBlock         = "fenced_code_block"
	KindFenceDelimiter          = "fenced_code_block_delimiter"
	KindInfoString              = "info_string"
	KindCodeFenceContent        = "code_fence_content"
	KindIndentedCodeBlock       = "indented_code_block"
	KindThematicBreak           = "thematic_break"
	KindHTMLBlock               = "html_block"
	KindLinkReferenceDefinition = "link_reference_definition"
	KindLinkLabel               = "link_label"
	KindLinkDestination         = "link_destination"
	KindLinkTitle               = "link_title"
	KindLinkText                = "link_text"
	KindLink                    = "link"
	KindImage                   = "image"
	KindURIAutolink             = "uri_autolink"
	KindEmailAutolink           = "email_autolink"
	KindEmphasis                = "emphasis"
	KindStrongEmphasis          = "strong_emphasis"
	KindEmphasisDelimiter       = "emphasis_delimiter"
	KindStrikethrough           = "strikethrough"
	KindCodeSpan                = "code_span"
	KindHTMLTag                 = "html_tag"
	KindText                    = "text"
	KindSoftLineBreak           = "soft_line_break"
	KindHardLineBreak           = "hard_line_break"
)

// Node is a single node of the concrete syntax tree. Start and End are byte
// offsets into the tree's source; both are -1 when the position could not be
// recovered from the parser.
type Node struct {
	Kind     string
	Start    int
	End      int
	Parent   *Node
	Children []*Node

	tree *Tree
}

// HasRange reports whether the node carries a usable byte range.
func (n *Node) HasRange() bool {
	return n.Start >= 0 && n.End >= n.Start
}

// Text returns the source text covered by the node. It fails with ErrNoText
// when the range is unknown, out of bounds, or splits a UTF-8 sequence.
func (n *Node) Text() (string, error) {
	if n.tree == nil || !n.HasRange() || n.End > len(n.tree.Source) {
		return "", ErrNoText
	}
	src := n.tree.Source
	if n.Start < len(src) && !utf8.RuneStart(src[n.Start]) {
		return "", ErrNoText
	}
	if n.End < len(src) && !utf8.RuneStart(src[n.End]) {
		return "", ErrNoText
	}
	b := src[n.Start:n.End]
	if !utf8.Valid(b) {
		return "", ErrNoText
	}
	return string(b), nil
}

// StartLine returns the 0-based line holding the node's first byte, or -1.
func (n *Node) StartLine() int {
	if n.tree == nil || !n.HasRange() {
		return -1
	}
	return n.tree.LineOf(n.Start)
}

// Child returns the first direct child of the given kind.
func (n *Node) Child(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildMatching returns the first direct child whose kind satisfies match.
func (n *Node) ChildMatching(match func(kind string) bool) *Node {
	for _, c := range n.Children {
		if match(c.Kind) {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first child of the given kind.
func (n *Node) ChildText(kind string) (string, bool) {
	c := n.Child(kind)
	if c == nil {
		return "", false
	}
	text, err := c.Text()
	if err != nil {
		return "", false
	}
	return text, true
}

// IsATXMarker reports whether kind names an ATX heading marker
// (atx_h1_marker through atx_h6_marker).
func IsATXMarker(kind string) bool {
	return strings.HasPrefix(kind, "atx_h") && strings.HasSuffix(kind, "_marker")
}

// IsListKind reports whether kind belongs to the list family.
func IsListKind(kind string) bool {
	return kind == KindList || kind == KindListItem || strings.Contains(kind, KindListMarker)
}

func appendChild(parent, child *Node) {
	if parent == nil || child == nil {
		return
	}
	child.Parent = parent
	parent.Children = append(parent.Children, child)
}
