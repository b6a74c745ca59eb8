package syntax

import (
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Supported Markdown flavors.
const (
	FlavorCommonMark = "commonmark"
	FlavorGFM        = "gfm"
)

// Parser turns Markdown bytes into a Tree using goldmark as the grammar.
// A Parser holds no per-document state and may be shared between goroutines.
type Parser struct {
	flavor string
	md     goldmark.Markdown
}

// NewParser creates a parser for the given flavor. An empty flavor selects
// CommonMark; any other unknown value is an error.
func NewParser(flavor string) (*Parser, error) {
	switch flavor {
	case "":
		flavor = FlavorCommonMark
	case FlavorCommonMark, FlavorGFM:
	default:
		return nil, fmt.Errorf("syntax: unsupported markdown flavor %q", flavor)
	}
	return &Parser{
		flavor: flavor,
		md:     newGoldmarkInstance(flavor),
	}, nil
}

// Flavor returns the configured Markdown flavor.
func (p *Parser) Flavor() string {
	return p.flavor
}

// Parse builds the syntax tree for source. The source slice is retained by the
// returned tree and must not be modified afterwards.
func (p *Parser) Parse(ctx context.Context, source []byte) (tree *Tree, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("syntax: parser failed: %v", r)
		}
	}()

	pc := parser.NewContext()
	gmDoc := p.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	tree = newTree(source)
	b := newBuilder(tree, pc)
	tree.Root = b.build(gmDoc)
	return tree, nil
}

//nolint:ireturn // goldmark.Markdown is an external interface type
func newGoldmarkInstance(flavor string) goldmark.Markdown {
	var opts []goldmark.Option
	if flavor == FlavorGFM {
		opts = append(opts, goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		))
	}
	return goldmark.New(opts...)
}
