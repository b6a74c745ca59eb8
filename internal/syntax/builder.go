package syntax

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
)

// builder converts a goldmark AST into a Tree. goldmark keeps line segments
// for most blocks but no positions for container and inline delimiters, so
// the builder recovers those by looking at the source around the segments.
type builder struct {
	tree *Tree
	src  []byte
	pc   parser.Context

	// cursor is the end of the last positioned leaf block, in document order.
	cursor int
	// pendingLo records the cursor at the time an unpositioned thematic break
	// was seen; it bounds the later search for its line.
	pendingLo map[*Node]int
	// opaque holds ranges whose content is not Markdown (code, raw HTML).
	opaque [][2]int
}

func newBuilder(tree *Tree, pc parser.Context) *builder {
	return &builder{
		tree:      tree,
		src:       tree.Source,
		pc:        pc,
		pendingLo: make(map[*Node]int),
	}
}

func (b *builder) newNode(kind string, start, end int) *Node {
	return &Node{Kind: kind, Start: start, End: end, tree: b.tree}
}

func (b *builder) build(doc ast.Node) *Node {
	root := b.newNode(KindDocument, 0, len(b.src))
	b.mapBlockChildren(doc, root)
	b.attachDefinitions(root)
	return root
}

// --- block level ---

func (b *builder) mapBlockChildren(gmParent ast.Node, parent *Node) {
	var children []*Node
	for c := gmParent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := b.mapBlock(c); n != nil {
			children = append(children, n)
		}
	}
	b.placeThematicBreaks(children)
	for _, c := range children {
		appendChild(parent, c)
	}
}

func (b *builder) mapBlock(gmNode ast.Node) *Node {
	switch n := gmNode.(type) {
	case *ast.Heading:
		return b.mapHeading(n)
	case *ast.Paragraph, *ast.TextBlock:
		return b.mapParagraph(n)
	case *ast.List:
		return b.mapList(n)
	case *ast.ListItem:
		return b.mapListItem(n)
	case *ast.Blockquote:
		return b.mapBlockquote(n)
	case *ast.FencedCodeBlock:
		return b.mapFencedCodeBlock(n)
	case *ast.CodeBlock:
		return b.mapIndentedCodeBlock(n)
	case *ast.ThematicBreak:
		node := b.newNode(KindThematicBreak, -1, -1)
		b.pendingLo[node] = b.cursor
		return node
	case *ast.HTMLBlock:
		return b.mapHTMLBlock(n)
	default:
		node := b.newNode(strings.ToLower(gmNode.Kind().String()), -1, -1)
		if gmNode.Type() == ast.TypeBlock && gmNode.FirstChild() != nil && gmNode.FirstChild().Type() == ast.TypeInline {
			b.mapInlineChildren(gmNode, node, b.cursor)
		} else {
			b.mapBlockChildren(gmNode, node)
		}
		node.Start, node.End = span(node.Children)
		return node
	}
}

func (b *builder) mapHeading(h *ast.Heading) *Node {
	start, end, ok := b.linesRange(h)
	if !ok {
		return b.newNode(KindATXHeading, -1, -1)
	}

	lineStart := b.tree.LineStart(start)
	p := start
	for p > lineStart && isBlank(b.src[p-1]) {
		p--
	}
	q := p
	for q > lineStart && b.src[q-1] == '#' {
		q--
	}

	content := b.newNode(KindHeadingContent, start, end)
	b.mapInlineChildren(h, content, start)

	if level := p - q; level >= 1 && level <= 6 {
		node := b.newNode(KindATXHeading, q, b.trimEnd(q, b.lineEnd(start)))
		appendChild(node, b.newNode(fmt.Sprintf("atx_h%d_marker", level), q, q+level))
		appendChild(node, content)
		b.advance(node.End)
		return node
	}

	node := b.newNode(KindSetextHeading, start, end)
	appendChild(node, content)
	if ul := b.lineEnd(end) + 1; ul < len(b.src) {
		ulEnd := b.trimEnd(ul, b.lineEnd(ul))
		ulStart := ul
		for ulStart < ulEnd && (isBlank(b.src[ulStart]) || b.src[ulStart] == '>') {
			ulStart++
		}
		kind := KindSetextH2Underline
		if h.Level == 1 {
			kind = KindSetextH1Underline
		}
		appendChild(node, b.newNode(kind, ulStart, ulEnd))
		node.End = ulEnd
	}
	b.advance(node.End)
	return node
}

func (b *builder) mapParagraph(p ast.Node) *Node {
	start, end, ok := b.linesRange(p)
	if !ok {
		return nil
	}
	node := b.newNode(KindParagraph, start, end)
	b.mapInlineChildren(p, node, start)
	b.advance(end)
	return node
}

func (b *builder) mapList(list *ast.List) *Node {
	node := b.newNode(KindList, -1, -1)
	b.mapBlockChildren(list, node)
	node.Start, node.End = span(node.Children)
	return node
}

func (b *builder) mapListItem(item *ast.ListItem) *Node {
	node := b.newNode(KindListItem, -1, -1)
	tmp := &Node{}
	b.mapBlockChildren(item, tmp)

	first, last := span(tmp.Children)
	if first >= 0 {
		if ms, me, ok := b.listMarkerBefore(first); ok {
			appendChild(node, b.newNode(KindListMarker, ms, me))
			node.Start = ms
			node.End = max(last, me)
		}
	}
	for _, c := range tmp.Children {
		appendChild(node, c)
	}
	return node
}

// listMarkerBefore finds the list marker that precedes the item content
// starting at offset, on the same line.
func (b *builder) listMarkerBefore(offset int) (int, int, bool) {
	lineStart := b.tree.LineStart(offset)
	p := offset
	for p > lineStart && isBlank(b.src[p-1]) {
		p--
	}
	if p == lineStart {
		return 0, 0, false
	}
	switch c := b.src[p-1]; {
	case c == '-' || c == '*' || c == '+':
		return p - 1, p, true
	case c == '.' || c == ')':
		q := p - 1
		for q > lineStart && isDigit(b.src[q-1]) {
			q--
		}
		if q < p-1 {
			return q, p, true
		}
	}
	return 0, 0, false
}

func (b *builder) mapBlockquote(bq *ast.Blockquote) *Node {
	node := b.newNode(KindBlockQuote, -1, -1)
	b.mapBlockChildren(bq, node)
	first, last := span(node.Children)
	if first < 0 {
		return node
	}
	lineStart := b.tree.LineStart(first)
	node.Start = first
	if i := bytes.IndexByte(b.src[lineStart:first], '>'); i >= 0 {
		node.Start = lineStart + i
	}
	node.End = last
	return node
}

func (b *builder) mapFencedCodeBlock(fc *ast.FencedCodeBlock) *Node {
	node := b.newNode(KindFencedCodeBlock, -1, -1)
	lines := fc.Lines()

	openLine := -1
	switch {
	case fc.Info != nil:
		openLine = b.tree.LineStart(fc.Info.Segment.Start)
	case lines.Len() > 0:
		if ls := b.tree.LineStart(lines.At(0).Start); ls > 0 {
			openLine = b.tree.LineStart(ls - 1)
		}
	default:
		openLine = b.findFenceLine(b.cursor)
	}
	if openLine < 0 {
		return node
	}

	openEnd := b.lineEnd(openLine)
	fenceStart, fenceChar, fenceLen := findFence(b.src[openLine:openEnd])
	if fenceLen == 0 {
		return node
	}
	fenceStart += openLine
	node.Start = fenceStart
	node.End = fenceStart + fenceLen
	appendChild(node, b.newNode(KindFenceDelimiter, fenceStart, fenceStart+fenceLen))

	if fc.Info != nil {
		seg := fc.Info.Segment
		appendChild(node, b.newNode(KindInfoString, seg.Start, b.trimEnd(seg.Start, seg.Stop)))
		node.End = b.trimEnd(seg.Start, seg.Stop)
	}

	after := openEnd + 1
	if lines.Len() > 0 {
		cs, ce := lines.At(0).Start, lines.At(lines.Len()-1).Stop
		appendChild(node, b.newNode(KindCodeFenceContent, cs, ce))
		node.End = b.trimEnd(cs, ce)
		after = ce
	}

	if after < len(b.src) {
		closeEnd := b.lineEnd(after)
		if cs, c, n := findFence(b.src[after:closeEnd]); n >= fenceLen && c == fenceChar {
			cs += after
			appendChild(node, b.newNode(KindFenceDelimiter, cs, cs+n))
			node.End = cs + n
		}
	}

	b.opaque = append(b.opaque, [2]int{node.Start, node.End})
	b.advance(node.End)
	return node
}

func (b *builder) mapIndentedCodeBlock(cb *ast.CodeBlock) *Node {
	start, end, ok := b.linesRange(cb)
	if !ok {
		return nil
	}
	node := b.newNode(KindIndentedCodeBlock, start, end)
	b.opaque = append(b.opaque, [2]int{start, end})
	b.advance(end)
	return node
}

func (b *builder) mapHTMLBlock(hb *ast.HTMLBlock) *Node {
	start, end, ok := b.linesRange(hb)
	if !ok {
		return nil
	}
	if hb.HasClosure() {
		end = b.trimEnd(start, hb.ClosureLine.Stop)
	}
	node := b.newNode(KindHTMLBlock, start, end)
	b.opaque = append(b.opaque, [2]int{start, end})
	b.advance(end)
	return node
}

// placeThematicBreaks positions thematic breaks, which goldmark records
// without any source segment, by searching the lines between neighbours.
func (b *builder) placeThematicBreaks(children []*Node) {
	for i, c := range children {
		if c.Kind != KindThematicBreak || c.HasRange() {
			continue
		}
		lo := b.pendingLo[c]
		if i > 0 && children[i-1].HasRange() {
			lo = max(lo, children[i-1].End)
		}
		hi := len(b.src)
		for _, next := range children[i+1:] {
			if next.HasRange() {
				hi = next.Start
				break
			}
		}
		for pos := lo; pos < hi; {
			end := b.lineEnd(pos)
			line := bytes.TrimLeft(b.src[pos:end], " \t>")
			if isThematicBreak(line) {
				c.Start = end - len(line)
				c.End = b.trimEnd(c.Start, end)
				break
			}
			pos = end + 1
		}
		delete(b.pendingLo, c)
	}
}

// --- inline level ---

// mapInlineChildren maps the inline children of gmParent onto parent. lo is
// the lowest offset at which the children may start; it is used to locate
// constructs goldmark keeps no segment for.
func (b *builder) mapInlineChildren(gmParent ast.Node, parent *Node, lo int) int {
	if lo < 0 {
		lo = 0
	}
	for c := gmParent.FirstChild(); c != nil; c = c.NextSibling() {
		for _, n := range b.mapInline(c, lo) {
			appendChild(parent, n)
			if n.HasRange() && n.End > lo {
				lo = n.End
			}
		}
	}
	return lo
}

func (b *builder) mapInline(gmNode ast.Node, lo int) []*Node {
	switch n := gmNode.(type) {
	case *ast.Text:
		return b.mapText(n)
	case *ast.String:
		return []*Node{b.newNode(KindText, -1, -1)}
	case *ast.Emphasis:
		kind := KindEmphasis
		if n.Level == 2 {
			kind = KindStrongEmphasis
		}
		return []*Node{b.mapDelimited(n, kind, n.Level, "*_", lo)}
	case *east.Strikethrough:
		return []*Node{b.mapDelimited(n, KindStrikethrough, 0, "~", lo)}
	case *ast.CodeSpan:
		return []*Node{b.mapCodeSpan(n, lo)}
	case *ast.Link:
		return []*Node{b.mapLink(n, KindLink, lo)}
	case *ast.Image:
		return []*Node{b.mapLink(n, KindImage, lo)}
	case *ast.AutoLink:
		return []*Node{b.mapAutoLink(n, lo)}
	case *ast.RawHTML:
		node := b.newNode(KindHTMLTag, -1, -1)
		if segs := n.Segments; segs != nil && segs.Len() > 0 {
			node.Start, node.End = segs.At(0).Start, segs.At(segs.Len()-1).Stop
		}
		return []*Node{node}
	default:
		node := b.newNode(strings.ToLower(gmNode.Kind().String()), -1, -1)
		b.mapInlineChildren(gmNode, node, lo)
		node.Start, node.End = span(node.Children)
		return []*Node{node}
	}
}

func (b *builder) mapText(t *ast.Text) []*Node {
	seg := t.Segment
	out := []*Node{b.newNode(KindText, seg.Start, seg.Stop)}
	if !t.SoftLineBreak() && !t.HardLineBreak() {
		return out
	}
	nl := bytes.IndexByte(b.src[seg.Stop:], '\n')
	if nl < 0 {
		return out
	}
	at := seg.Stop + nl
	if t.HardLineBreak() {
		return append(out, b.newNode(KindHardLineBreak, seg.Stop, at+1))
	}
	return append(out, b.newNode(KindSoftLineBreak, at, at+1))
}

// mapDelimited maps emphasis-like spans. When level is zero the delimiter
// run length is measured from the source.
func (b *builder) mapDelimited(gmNode ast.Node, kind string, level int, delims string, lo int) *Node {
	node := b.newNode(kind, -1, -1)
	tmp := &Node{}
	b.mapInlineChildren(gmNode, tmp, lo)
	s, e := span(tmp.Children)

	if s >= 0 {
		if level == 0 {
			for s-level > 0 && strings.IndexByte(delims, b.src[s-level-1]) >= 0 {
				level++
			}
		}
		if level > 0 && s-level >= 0 && e+level <= len(b.src) &&
			allIn(b.src[s-level:s], delims) && allIn(b.src[e:e+level], delims) {
			node.Start, node.End = s-level, e+level
			appendChild(node, b.newNode(KindEmphasisDelimiter, s-level, s))
			for _, c := range tmp.Children {
				appendChild(node, c)
			}
			appendChild(node, b.newNode(KindEmphasisDelimiter, e, e+level))
			return node
		}
	}
	for _, c := range tmp.Children {
		appendChild(node, c)
	}
	return node
}

func (b *builder) mapCodeSpan(cs *ast.CodeSpan, lo int) *Node {
	node := b.newNode(KindCodeSpan, -1, -1)
	s, e := -1, -1
	for c := cs.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		if s < 0 {
			s = t.Segment.Start
		}
		e = t.Segment.Stop
	}
	if s < 0 {
		return node
	}

	open := s
	if open > lo && b.src[open-1] == ' ' && open > 1 && b.src[open-2] == '`' {
		open--
	}
	ticks := 0
	for open > 0 && b.src[open-1] == '`' {
		open--
		ticks++
	}
	if ticks == 0 {
		return node
	}

	closeAt := e
	if closeAt < len(b.src) && b.src[closeAt] == ' ' {
		closeAt++
	}
	n := 0
	for closeAt+n < len(b.src) && b.src[closeAt+n] == '`' {
		n++
	}
	if n != ticks {
		return node
	}
	node.Start, node.End = open, closeAt+n
	return node
}

func (b *builder) mapLink(gmNode ast.Node, kind string, lo int) *Node {
	node := b.newNode(kind, -1, -1)
	text := b.newNode(KindLinkText, -1, -1)
	b.mapInlineChildren(gmNode, text, lo)

	prefix := "["
	if kind == KindImage {
		prefix = "!["
	}

	s, e := span(text.Children)
	if s < 0 {
		i := bytes.Index(b.src[lo:], []byte(prefix+"]"))
		if i < 0 {
			appendChild(node, text)
			return node
		}
		s = lo + i + len(prefix)
		e = s
	}

	start := s - len(prefix)
	if start < 0 || !bytes.Equal(b.src[start:s], []byte(prefix)) || e >= len(b.src) || b.src[e] != ']' {
		appendChild(node, text)
		return node
	}

	text.Start, text.End = s, e
	appendChild(node, text)
	node.Start = start
	node.End = b.parseLinkTail(node, e+1)
	return node
}

// parseLinkTail reads what follows the closing bracket of a link or image:
// an inline destination and title in parentheses, a reference label, or
// nothing (shortcut reference). It returns the end offset of the construct.
func (b *builder) parseLinkTail(node *Node, p int) int {
	src := b.src
	if p >= len(src) {
		return p
	}

	switch src[p] {
	case '(':
		q := b.skipSpace(p + 1)
		if q < len(src) && src[q] == '<' {
			if r := bytes.IndexByte(src[q+1:], '>'); r >= 0 {
				appendChild(node, b.newNode(KindLinkDestination, q+1, q+1+r))
				q += r + 2
			}
		} else {
			ds, depth := q, 0
		dest:
			for q < len(src) {
				switch c := src[q]; {
				case c == '\\' && q+1 < len(src):
					q += 2
					continue
				case c == '(':
					depth++
				case c == ')':
					if depth == 0 {
						break dest
					}
					depth--
				case isSpace(c):
					break dest
				}
				q++
			}
			if q > ds {
				appendChild(node, b.newNode(KindLinkDestination, ds, q))
			}
		}

		q = b.skipSpace(q)
		if q < len(src) && (src[q] == '"' || src[q] == '\'' || src[q] == '(') {
			closer := src[q]
			if closer == '(' {
				closer = ')'
			}
			ts := q
			q++
			for q < len(src) && src[q] != closer {
				if src[q] == '\\' {
					q++
				}
				q++
			}
			if q < len(src) {
				q++
			}
			appendChild(node, b.newNode(KindLinkTitle, ts, min(q, len(src))))
		}

		q = b.skipSpace(q)
		if q < len(src) && src[q] == ')' {
			return q + 1
		}
		return min(q, len(src))

	case '[':
		if r := bytes.IndexByte(src[p+1:], ']'); r >= 0 {
			appendChild(node, b.newNode(KindLinkLabel, p, p+r+2))
			return p + r + 2
		}
	}
	return p
}

func (b *builder) mapAutoLink(al *ast.AutoLink, lo int) *Node {
	kind := KindURIAutolink
	if al.AutoLinkType == ast.AutoLinkEmail {
		kind = KindEmailAutolink
	}
	node := b.newNode(kind, -1, -1)

	label := al.Label(b.src)
	i := bytes.Index(b.src[lo:], label)
	if len(label) == 0 || i < 0 {
		return node
	}
	s := lo + i
	e := s + len(label)
	appendChild(node, b.newNode(KindLinkDestination, s, e))
	if s > 0 && b.src[s-1] == '<' && e < len(b.src) && b.src[e] == '>' {
		s--
		e++
	}
	node.Start, node.End = s, e
	return node
}

// --- helpers ---

func (b *builder) advance(end int) {
	if end > b.cursor {
		b.cursor = end
	}
}

// linesRange returns the byte range covered by a block's line segments with
// trailing whitespace removed.
func (b *builder) linesRange(n ast.Node) (int, int, bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return -1, -1, false
	}
	start := lines.At(0).Start
	return start, b.trimEnd(start, lines.At(lines.Len()-1).Stop), true
}

func (b *builder) trimEnd(start, end int) int {
	end = min(end, len(b.src))
	for end > start && isSpace(b.src[end-1]) {
		end--
	}
	return end
}

// lineEnd returns the offset of the newline ending the line holding offset,
// or the end of the source.
func (b *builder) lineEnd(offset int) int {
	if offset >= len(b.src) {
		return len(b.src)
	}
	if i := bytes.IndexByte(b.src[offset:], '\n'); i >= 0 {
		return offset + i
	}
	return len(b.src)
}

func (b *builder) skipSpace(p int) int {
	for p < len(b.src) && isSpace(b.src[p]) {
		p++
	}
	return p
}

// findFenceLine returns the start of the first line at or after offset that
// opens a code fence, or -1.
func (b *builder) findFenceLine(offset int) int {
	for pos := b.tree.LineStart(offset); pos < len(b.src); {
		end := b.lineEnd(pos)
		if _, _, n := findFence(b.src[pos:end]); n > 0 {
			return pos
		}
		pos = end + 1
	}
	return -1
}

// findFence locates a run of three or more backticks or tildes in line.
func findFence(line []byte) (int, byte, int) {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '`' && c != '~' {
			continue
		}
		n := 0
		for i+n < len(line) && line[i+n] == c {
			n++
		}
		if n >= 3 {
			return i, c, n
		}
		i += n - 1
	}
	return 0, 0, 0
}

func isThematicBreak(line []byte) bool {
	var marker byte
	count := 0
	for _, c := range line {
		switch {
		case isSpace(c):
		case c == '*' || c == '-' || c == '_':
			if marker != 0 && c != marker {
				return false
			}
			marker = c
			count++
		default:
			return false
		}
	}
	return count >= 3
}

// span returns the start of the first and the end of the last positioned node.
func span(nodes []*Node) (int, int) {
	start, end := -1, -1
	for _, n := range nodes {
		if !n.HasRange() {
			continue
		}
		if start < 0 {
			start = n.Start
		}
		end = n.End
	}
	return start, end
}

func allIn(b []byte, set string) bool {
	for _, c := range b {
		if strings.IndexByte(set, c) < 0 {
			return false
		}
	}
	return true
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
