// Package testutil provides shared test helpers for setting up content roots,
// renderers and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/renderer"
	"github.com/starford/quire/internal/transpile"
)

// Template is a minimal page template with both placeholders.
const Template = "<html><head><title>{title}</title></head><body>{content}</body></html>"

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBlog creates a temporary content root holding files (slash-separated
// relative path -> content) next to a template file. It returns the content
// root and the template path.
func TestBlog(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "blog")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	tmpl := filepath.Join(dir, "template.html")
	if err := os.WriteFile(tmpl, []byte(Template), 0o644); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
	return root, tmpl
}

// WriteFile writes content to rel below root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestRenderer builds a renderer over a fresh TestBlog with route prefix
// "blog" and returns it with the content root.
func TestRenderer(t *testing.T, files map[string]string) (*renderer.Renderer, string) {
	t.Helper()
	root, tmpl := TestBlog(t, files)
	r, err := renderer.New(renderer.Config{
		ContentRoot: root,
		Template:    tmpl,
		RoutePrefix: "blog",
		Identity:    transpile.DefaultIdentity(),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r, root
}

// TestIndex builds an indexer over r's content root, syncs it, and returns it.
func TestIndex(t *testing.T, r *renderer.Renderer) *index.Indexer {
	t.Helper()
	ix := index.NewIndexer(TestDB(t), r.Store(), r.Parser(), r.ResolvePath, nil)
	if err := ix.Sync(t.Context()); err != nil {
		t.Fatal(err)
	}
	return ix
}
