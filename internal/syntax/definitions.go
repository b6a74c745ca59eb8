package syntax

import (
	"regexp"
	"slices"

	"github.com/yuin/goldmark/util"
)

// definitionPattern matches a single-line link reference definition,
// optionally inside block quotes. Groups: label, destination, title.
var definitionPattern = regexp.MustCompile(`(?m)^(?:[ ]{0,3}>[ ]?)*[ ]{0,3}(\[(?:[^\]\\\n]|\\.)+\]):[ \t]*(<[^>\n]*>|\S+)(?:[ \t]+("(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'|\((?:[^)\\\n]|\\.)*\)))?[ \t]*\r?$`)

// attachDefinitions adds link_reference_definition nodes. goldmark consumes
// definitions into the parser context and drops them from the AST, so they
// are recovered from the source and kept only when goldmark registered the
// same label.
func (b *builder) attachDefinitions(root *Node) {
	for _, m := range definitionPattern.FindAllSubmatchIndex(b.src, -1) {
		start := m[2]
		if b.isOpaque(start) {
			continue
		}
		label := b.src[m[2]+1 : m[3]-1]
		if _, ok := b.pc.Reference(util.ToLinkReference(label)); !ok {
			continue
		}
		parent, ok := containerFor(root, start)
		if !ok {
			continue
		}

		def := b.newNode(KindLinkReferenceDefinition, start, b.trimEnd(start, m[1]))
		appendChild(def, b.newNode(KindLinkLabel, m[2], m[3]))
		ds, de := m[4], m[5]
		if de-ds >= 2 && b.src[ds] == '<' && b.src[de-1] == '>' {
			ds++
			de--
		}
		appendChild(def, b.newNode(KindLinkDestination, ds, de))
		if m[6] >= 0 {
			appendChild(def, b.newNode(KindLinkTitle, m[6], m[7]))
		}
		insertSorted(parent, def)
	}
}

func (b *builder) isOpaque(offset int) bool {
	for _, r := range b.opaque {
		if offset >= r[0] && offset < r[1] {
			return true
		}
	}
	return false
}

// containerFor returns the deepest block container of parent holding offset.
// It fails when offset falls inside a leaf block, where a definition cannot
// appear.
func containerFor(parent *Node, offset int) (*Node, bool) {
	for _, c := range parent.Children {
		if !c.HasRange() || offset < c.Start || offset >= c.End {
			continue
		}
		switch c.Kind {
		case KindBlockQuote, KindList, KindListItem:
			return containerFor(c, offset)
		default:
			return nil, false
		}
	}
	return parent, true
}

func insertSorted(parent, child *Node) {
	i := len(parent.Children)
	for j, c := range parent.Children {
		if c.HasRange() && c.Start > child.Start {
			i = j
			break
		}
	}
	child.Parent = parent
	parent.Children = slices.Insert(parent.Children, i, child)
}
