package index

import (
	"context"
	"path"
	"strings"

	"github.com/starford/quire/internal/frontmatter"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/syntax"
	"github.com/starford/quire/internal/transpile"
)

// Link types stored in the links table.
const (
	LinkInline    = "inline"
	LinkReference = "reference"
	LinkImage     = "image"
)

// PathResolver maps a site-absolute document identifier such as
// "/blog/posts/hello" to a content-relative Markdown path.
type PathResolver func(documentPath string) string

// Analysis is everything the index records about one post.
type Analysis struct {
	Row   PostRow
	Body  string
	Links []models.Link
}

// Analyze parses a post and extracts its index fields. Local link targets are
// normalized to content-relative .md paths so backlinks can be queried by the
// same path the post is stored under; external targets are kept verbatim.
func Analyze(ctx context.Context, p *syntax.Parser, resolve PathResolver, rel string, data []byte) (Analysis, error) {
	tree, err := p.Parse(ctx, data)
	if err != nil {
		return Analysis{}, err
	}

	text := string(data)
	meta := frontmatter.Extract(text)

	row := PostRow{
		Path:     rel,
		Metadata: meta,
	}
	row.Title, _ = meta.Get("title")
	if row.Title == "" {
		row.Title = firstHeading(tree.Root)
	}
	row.Description, _ = meta.Get("description")
	row.Date, _ = meta.Get("date")

	refs := transpile.ResolveLinkReferences(tree.Root)

	var links []models.Link
	seen := make(map[string]struct{})
	add := func(dest, kind string) {
		target, ok := normalizeTarget(rel, dest, resolve)
		if !ok {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		links = append(links, models.Link{Source: rel, Target: target, Type: kind})
	}

	syntax.Walk(tree.Root, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindLink:
			if dest, ok := n.ChildText(syntax.KindLinkDestination); ok {
				add(dest, LinkInline)
				return true
			}
			label, ok := n.ChildText(syntax.KindLinkLabel)
			label = strings.TrimSuffix(strings.TrimPrefix(label, "["), "]")
			if !ok || label == "" {
				label, _ = n.ChildText(syntax.KindLinkText)
			}
			if ref, found := refs.Lookup(label); found {
				add(ref.Destination, LinkReference)
			}
		case syntax.KindImage:
			if dest, ok := n.ChildText(syntax.KindLinkDestination); ok {
				add(dest, LinkImage)
			}
		case syntax.KindURIAutolink:
			if dest, ok := n.ChildText(syntax.KindLinkDestination); ok {
				add(dest, LinkInline)
			}
		}
		return true
	})

	return Analysis{Row: row, Body: text, Links: links}, nil
}

func firstHeading(root *syntax.Node) string {
	var title string
	syntax.Walk(root, func(n *syntax.Node) bool {
		if title != "" {
			return false
		}
		switch n.Kind {
		case syntax.KindATXHeading:
			marker := n.ChildMatching(syntax.IsATXMarker)
			if marker == nil || marker.Kind != "atx_h1_marker" {
				return false
			}
		case syntax.KindSetextHeading:
			if n.Child(syntax.KindSetextH1Underline) == nil {
				return false
			}
		default:
			return true
		}
		title, _ = n.ChildText(syntax.KindHeadingContent)
		title = strings.TrimSpace(title)
		return false
	})
	return title
}

// normalizeTarget returns the stored form of a link destination found in the
// post at rel. Fragment-only links and mailto links are dropped.
func normalizeTarget(rel, dest string, resolve PathResolver) (string, bool) {
	dest = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(dest, "<"), ">"))
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "mailto:") {
		return "", false
	}
	if strings.Contains(dest, "://") {
		return dest, true
	}

	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	if dest == "" {
		return "", false
	}

	ext := path.Ext(dest)
	if strings.HasPrefix(dest, "/") {
		if ext == "" && resolve != nil {
			return resolve(dest), true
		}
		return strings.TrimPrefix(path.Clean(dest), "/"), true
	}

	target := path.Join(path.Dir(rel), dest)
	if strings.HasPrefix(target, "../") || target == ".." {
		return "", false
	}
	if ext == "" {
		target += ".md"
	}
	return target, true
}
