// Package postservice coordinates the renderer, content storage and the post
// index for the HTTP and MCP surfaces.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/renderer"
)

// ErrIndexDisabled is returned by index-backed operations when the service
// runs without a post index.
var ErrIndexDisabled = fmt.Errorf("%w: post index is disabled", apperr.ErrNotFound)

// PostDetail is the full representation of a post's source.
type PostDetail struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Date        string            `json:"date,omitempty"`
	Metadata    map[string]string `json:"metadata"`
	Content     string            `json:"content"`
	Checksum    string            `json:"checksum"`
	Links       []models.Link     `json:"links"`
	Backlinks   []string          `json:"backlinks"`
}

// Service coordinates rendering, storage and index operations.
type Service struct {
	renderer *renderer.Renderer
	db       index.PostIndex
}

// NewService creates a new post service. db may be nil, in which case
// listing, search and backlinks fail with ErrIndexDisabled.
func NewService(r *renderer.Renderer, db index.PostIndex) *Service {
	return &Service{renderer: r, db: db}
}

// ResolvePath maps a document identifier to its content-relative path.
func (s *Service) ResolvePath(documentPath string) string {
	return s.renderer.ResolvePath(documentPath)
}

// RenderPage renders the page for a document identifier.
func (s *Service) RenderPage(ctx context.Context, documentPath string) (string, error) {
	return s.renderer.Render(ctx, documentPath)
}

// GetPost reads a post's source and enriches it with its outgoing links and,
// when indexed, its backlinks.
func (s *Service) GetPost(ctx context.Context, documentPath string) (*PostDetail, error) {
	rel := s.renderer.ResolvePath(documentPath)
	data, err := s.renderer.Store().Read(rel)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidPath):
			return nil, err
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, rel)
		default:
			return nil, fmt.Errorf("%w: %s: %w", apperr.ErrFileRead, rel, err)
		}
	}

	a, err := index.Analyze(ctx, s.renderer.Parser(), s.renderer.ResolvePath, rel, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrMarkdownParse, rel, err)
	}

	var bl []string
	if s.db != nil {
		if bl, err = s.db.Backlinks(rel); err != nil {
			return nil, err
		}
	}

	return &PostDetail{
		Path:        rel,
		Title:       a.Row.Title,
		Description: a.Row.Description,
		Date:        a.Row.Date,
		Metadata:    nonNilMap(a.Row.Metadata),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Links:       nonNilSlice(a.Links),
		Backlinks:   nonNilSlice(bl),
	}, nil
}

// ListPosts returns a page of indexed posts, newest first.
func (s *Service) ListPosts(_ context.Context, limit, offset int) ([]models.PostSummary, int, error) {
	if s.db == nil {
		return nil, 0, ErrIndexDisabled
	}
	rows, total, err := s.db.ListPosts(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.PostSummary, len(rows))
	for i, r := range rows {
		items[i] = r.Summary()
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", apperr.ErrBadRequest)
	}
	if s.db == nil {
		return nil, ErrIndexDisabled
	}
	results, err := s.db.Search(query, limit)
	return nonNilSlice(results), err
}

// Backlinks returns the paths of all posts linking to the given document.
func (s *Service) Backlinks(_ context.Context, documentPath string) ([]string, error) {
	if s.db == nil {
		return nil, ErrIndexDisabled
	}
	bl, err := s.db.Backlinks(s.renderer.ResolvePath(documentPath))
	return nonNilSlice(bl), err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
