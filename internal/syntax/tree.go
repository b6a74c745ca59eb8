// Package syntax provides a kind-tagged concrete syntax tree over Markdown
// source. Nodes carry byte ranges into the original document so consumers
// can recover the exact text of any construct.
package syntax

import "sort"

// Tree is an immutable parse of one document.
type Tree struct {
	Source []byte
	Root   *Node

	lineStarts []int
}

func newTree(source []byte) *Tree {
	t := &Tree{Source: source}
	t.lineStarts = buildLineStarts(source)
	return t
}

// buildLineStarts returns the byte offset of the first byte of every line.
func buildLineStarts(content []byte) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineOf converts a byte offset to a 0-based line index.
func (t *Tree) LineOf(offset int) int {
	if offset < 0 {
		return -1
	}
	idx := sort.Search(len(t.lineStarts), func(i int) bool {
		return t.lineStarts[i] > offset
	})
	return idx - 1
}

// LineStart returns the offset of the start of the line containing offset.
func (t *Tree) LineStart(offset int) int {
	line := t.LineOf(offset)
	if line < 0 {
		return 0
	}
	return t.lineStarts[line]
}

// LineCount returns the number of lines in the source.
func (t *Tree) LineCount() int {
	return len(t.lineStarts)
}

// WalkFunc is called for every node during Walk. Returning false skips the
// node's children.
type WalkFunc func(n *Node) bool

// Walk performs a depth-first pre-order traversal starting at root.
func Walk(root *Node, fn WalkFunc) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// FindAll returns every node below and including root of the given kind.
func FindAll(root *Node, kind string) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindFirst returns the first node in document order of the given kind.
func FindFirst(root *Node, kind string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == kind {
			found = n
			return false
		}
		return true
	})
	return found
}
