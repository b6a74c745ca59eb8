// Package site renders every post under the content root into a static
// output directory.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/renderer"
	"github.com/starford/quire/internal/storage"
)

// Report summarizes a finished build.
type Report struct {
	Pages  int
	Assets int
}

// Builder writes rendered pages and static assets to an output directory.
type Builder struct {
	renderer *renderer.Renderer
	output   string
	workers  int
	logger   *slog.Logger
}

// NewBuilder creates a Builder. workers bounds the number of documents
// rendered at once.
func NewBuilder(r *renderer.Renderer, output string, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{renderer: r, output: output, workers: workers, logger: logger}
}

// PagePath maps a Markdown path to the HTML file it is built into.
func PagePath(rel string) string {
	return strings.TrimSuffix(rel, ".md") + ".html"
}

// Build renders every .md file into <output>/<path>.html and copies every
// other non-hidden file verbatim. The first failure cancels the build.
func (b *Builder) Build(ctx context.Context) (Report, error) {
	if err := os.MkdirAll(b.output, 0o755); err != nil {
		return Report{}, fmt.Errorf("%w: %s: %w", apperr.ErrFileWrite, b.output, err)
	}
	out, err := storage.NewFS(b.output)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %s: %w", apperr.ErrFileWrite, b.output, err)
	}
	src := b.renderer.Store()

	docs, err := src.List("")
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", apperr.ErrFileRead, err)
	}
	assets, err := listAssets(src.Root(), out.Root())
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", apperr.ErrFileRead, err)
	}

	var pages, copied atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, doc := range docs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := src.Read(doc.Path)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", apperr.ErrFileRead, doc.Path, err)
			}
			html, err := b.renderer.RenderDocument(gCtx, doc.Path, data)
			if err != nil {
				return err
			}
			target := PagePath(doc.Path)
			if err := out.Write(target, []byte(html)); err != nil {
				return fmt.Errorf("%w: %s: %w", apperr.ErrFileWrite, target, err)
			}
			pages.Add(1)
			b.logger.Debug("build: page written", slog.String("path", target))
			return nil
		})
	}

	for _, rel := range assets {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(src.Root(), filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("%w: %s: %w", apperr.ErrFileRead, rel, err)
			}
			if err := out.Write(rel, data); err != nil {
				return fmt.Errorf("%w: %s: %w", apperr.ErrFileWrite, rel, err)
			}
			copied.Add(1)
			return nil
		})
	}

	err = g.Wait()
	report := Report{Pages: int(pages.Load()), Assets: int(copied.Load())}
	if err != nil {
		return report, err
	}
	b.logger.Info("build: finished",
		slog.String("output", out.Root()),
		slog.Int("pages", report.Pages),
		slog.Int("assets", report.Assets))
	return report, nil
}

// listAssets returns the slash-separated paths of non-Markdown files under
// root. Hidden entries and the output directory itself are skipped.
func listAssets(root, output string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == output {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".md") || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}
