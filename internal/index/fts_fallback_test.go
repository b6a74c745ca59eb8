//go:build !sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFallbackSearch_WildcardsAreLiteral(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "pct.md", Title: "Rates", Checksum: "1", UpdatedAt: time.Now()}, "up 50% this year", nil)
	_ = db.UpsertPost(PostRow{Path: "plain.md", Title: "Plain", Checksum: "2", UpdatedAt: time.Now()}, "up 50 points", nil)

	results, err := db.Search("50%", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "pct.md" {
		t.Errorf("results = %+v, want only pct.md", results)
	}
}

func TestFallbackSearch_SnippetPrefersDescription(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "d.md", Title: "Described", Description: "short summary", Checksum: "1", UpdatedAt: time.Now()}, "needle in the body", nil)
	_ = db.UpsertPost(PostRow{Path: "b.md", Title: "Bare", Checksum: "2", UpdatedAt: time.Now()}, "needle only", nil)

	results, err := db.Search("needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	snippets := map[string]string{}
	for _, r := range results {
		snippets[r.Path] = r.Snippet
	}
	if snippets["d.md"] != "short summary" {
		t.Errorf("d.md snippet = %q, want description", snippets["d.md"])
	}
	if snippets["b.md"] != "needle only" {
		t.Errorf("b.md snippet = %q, want body prefix", snippets["b.md"])
	}
}
