// Package renderer turns a document identifier into a finished HTML page:
// it resolves the identifier under the content root, parses the Markdown,
// runs the extraction passes and the transpiler, and fills the page template.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/frontmatter"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/syntax"
	"github.com/starford/quire/internal/transpile"
)

// Config describes where documents live and how they are rendered.
type Config struct {
	ContentRoot      string
	Template         string
	RoutePrefix      string
	IndexDocument    string
	DefaultTitle     string
	Flavor           string
	RequiredMetadata []string
	Identity         transpile.Identity
}

// Renderer renders documents below a content root. It is safe for
// concurrent use: every render parses into its own tree and state.
type Renderer struct {
	cfg        Config
	store      *storage.FS
	parser     *syntax.Parser
	transpiler *transpile.Transpiler
	logger     *slog.Logger
}

// New validates the content root and template and builds a Renderer.
func New(cfg Config, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IndexDocument == "" {
		cfg.IndexDocument = "index"
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	cfg.RoutePrefix = strings.Trim(cfg.RoutePrefix, "/")

	store, err := storage.NewFS(cfg.ContentRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: blog directory not found: %s: %w", apperr.ErrNotFound, cfg.ContentRoot, err)
	}
	if _, err := os.Stat(cfg.Template); err != nil {
		return nil, fmt.Errorf("%w: template file not found: %s: %w", apperr.ErrNotFound, cfg.Template, err)
	}

	parser, err := syntax.NewParser(cfg.Flavor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrLanguage, err)
	}

	return &Renderer{
		cfg:    cfg,
		store:  store,
		parser: parser,
		transpiler: transpile.New(
			transpile.WithIdentity(cfg.Identity),
			transpile.WithLogger(logger),
		),
		logger: logger,
	}, nil
}

// Store returns the content-root storage the renderer reads from.
func (r *Renderer) Store() storage.Provider {
	return r.store
}

// RoutePrefix returns the route prefix without surrounding slashes.
func (r *Renderer) RoutePrefix() string {
	return r.cfg.RoutePrefix
}

// Parser returns the Markdown parser used for every render.
func (r *Renderer) Parser() *syntax.Parser {
	return r.parser
}

// ResolvePath maps a document identifier to a Markdown file path relative to
// the content root. Leading slashes, the route prefix and trailing slashes
// are removed; an empty identifier selects the index document.
func (r *Renderer) ResolvePath(documentPath string) string {
	clean := strings.TrimLeft(documentPath, "/")
	if r.cfg.RoutePrefix != "" {
		prefix := r.cfg.RoutePrefix + "/"
		for strings.HasPrefix(clean, prefix) {
			clean = clean[len(prefix):]
		}
	}
	clean = strings.TrimRight(clean, "/")

	if clean == "" {
		return r.cfg.IndexDocument + ".md"
	}
	return clean + ".md"
}

// URLFor is the inverse of ResolvePath: it returns the URL path a
// content-relative Markdown file is served at. The index document maps to the
// prefix root.
func (r *Renderer) URLFor(rel string) string {
	base := "/"
	if r.cfg.RoutePrefix != "" {
		base += r.cfg.RoutePrefix + "/"
	}
	doc := strings.TrimSuffix(strings.TrimLeft(rel, "/"), ".md")
	if doc == r.cfg.IndexDocument {
		return base
	}
	return base + doc
}

// Render produces the HTML page for a document identifier such as
// "/blog/posts/hello".
func (r *Renderer) Render(ctx context.Context, documentPath string) (string, error) {
	rel := r.ResolvePath(documentPath)
	r.logger.Debug("resolved markdown path",
		slog.String("document", documentPath),
		slog.String("path", rel))

	source, err := r.store.Read(rel)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidPath) {
			r.logger.Warn("path traversal attempt detected", slog.String("document", documentPath))
			return "", err
		}
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrFileRead, rel, err)
	}

	return r.RenderDocument(ctx, rel, source)
}

// RenderDocument renders Markdown source that has already been read. rel is
// used for error messages only.
func (r *Renderer) RenderDocument(ctx context.Context, rel string, source []byte) (string, error) {
	template, err := r.readTemplate()
	if err != nil {
		return "", err
	}

	tree, err := r.parser.Parse(ctx, source)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrMarkdownParse, rel, err)
	}

	text := string(source)
	metadata := frontmatter.Extract(text)
	for _, key := range r.cfg.RequiredMetadata {
		if _, ok := metadata.Get(key); !ok {
			return "", fmt.Errorf("%w: %s: %s", apperr.ErrMissingMetadata, rel, key)
		}
	}
	links := transpile.ResolveLinkReferences(tree.Root)
	lists := transpile.ExtractLists(text)

	content := r.transpiler.Transpile(tree, links, lists)
	return applyTemplate(template, content, metadata, r.cfg.DefaultTitle), nil
}

func (r *Renderer) readTemplate() (string, error) {
	data, err := os.ReadFile(r.cfg.Template)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrFileRead, r.cfg.Template, err)
	}
	template := string(data)
	if !strings.Contains(template, "{content}") {
		return "", fmt.Errorf("%w: %s has no {content} placeholder", apperr.ErrTemplate, r.cfg.Template)
	}
	return template, nil
}
