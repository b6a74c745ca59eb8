package transpile

import (
	"strings"

	"github.com/starford/quire/internal/syntax"
)

// LinkReference is the target of a reference-style link definition.
type LinkReference struct {
	Destination string
	Title       string
}

// LinkReferenceTable maps lowercase reference labels to their targets.
type LinkReferenceTable map[string]LinkReference

// Lookup finds the definition for label, ignoring case.
func (t LinkReferenceTable) Lookup(label string) (LinkReference, bool) {
	ref, ok := t[strings.ToLower(label)]
	return ref, ok
}

// ResolveLinkReferences collects every link reference definition in the tree
// rooted at root. All nodes are visited, so definitions nested in containers
// are found too. A later definition for the same label replaces an earlier one.
func ResolveLinkReferences(root *syntax.Node) LinkReferenceTable {
	table := make(LinkReferenceTable)
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind != syntax.KindLinkReferenceDefinition {
			return true
		}

		var label, dest, title string
		for _, c := range n.Children {
			text, err := c.Text()
			if err != nil {
				continue
			}
			switch c.Kind {
			case syntax.KindLinkLabel:
				label = strings.TrimRight(strings.TrimLeft(text, "["), "]")
			case syntax.KindLinkDestination:
				dest = text
			case syntax.KindLinkTitle:
				title = strings.Trim(strings.Trim(text, `"`), "'")
			}
		}
		if label != "" && dest != "" {
			table[strings.ToLower(label)] = LinkReference{Destination: dest, Title: title}
		}
		return true
	})
	return table
}
