package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func links(source string, targets ...string) []models.Link {
	out := make([]models.Link, 0, len(targets))
	for _, target := range targets {
		out = append(out, models.Link{Source: source, Target: target, Type: LinkInline})
	}
	return out
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&count); err != nil {
		t.Fatalf("posts table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := PostRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Metadata:  map[string]string{"title": "Hello World"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertPost(row, "This is a hello world post.", links("hello.md", "other.md")); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetPost(t *testing.T) {
	db := testDB(t)
	row := PostRow{
		Path:        "posts/a.md",
		Title:       "A",
		Description: "first",
		Date:        "2024-01-02",
		Checksum:    "1",
		Metadata:    map[string]string{"title": "A", "author": "sam"},
	}
	if err := db.UpsertPost(row, "body", nil); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}

	got, err := db.GetPost("posts/a.md")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Title != "A" || got.Description != "first" || got.Date != "2024-01-02" {
		t.Errorf("GetPost = %+v", got)
	}
	if got.Metadata["author"] != "sam" {
		t.Errorf("metadata = %v, want author=sam", got.Metadata)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set on upsert")
	}

	_, err = db.GetPost("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetPost(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListPosts_NewestFirst(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "old.md", Date: "2023-05-01", Checksum: "1"}, "", nil)
	_ = db.UpsertPost(PostRow{Path: "undated.md", Checksum: "2"}, "", nil)
	_ = db.UpsertPost(PostRow{Path: "new.md", Date: "2024-05-01", Checksum: "3"}, "", nil)

	rows, total, err := db.ListPosts(10, 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	want := []string{"new.md", "old.md", "undated.md"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, p := range want {
		if rows[i].Path != p {
			t.Errorf("rows[%d] = %q, want %q", i, rows[i].Path, p)
		}
	}

	page, total, err := db.ListPosts(1, 1)
	if err != nil {
		t.Fatalf("ListPosts page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].Path != "old.md" {
		t.Errorf("page = %+v total = %d", page, total)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "body", links("a.md", "b.md"))
	_ = db.UpsertPost(PostRow{Path: "c.md", Checksum: "2", UpdatedAt: time.Now()}, "body", links("c.md", "b.md"))

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0] != "a.md" || bl[1] != "c.md" {
		t.Fatalf("backlinks = %v, want [a.md c.md]", bl)
	}
}

func TestOutgoingLinks(t *testing.T) {
	db := testDB(t)
	ls := []models.Link{
		{Source: "a.md", Target: "b.md", Type: LinkReference},
		{Source: "a.md", Target: "img/x.png", Type: LinkImage},
	}
	_ = db.UpsertPost(PostRow{Path: "a.md", Checksum: "1"}, "body", ls)

	got, err := db.OutgoingLinks("a.md")
	if err != nil {
		t.Fatalf("OutgoingLinks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d links, want 2", len(got))
	}
	if got[0].Target != "b.md" || got[0].Type != LinkReference {
		t.Errorf("links[0] = %+v", got[0])
	}
	if got[1].Target != "img/x.png" || got[1].Type != LinkImage {
		t.Errorf("links[1] = %+v", got[1])
	}
}

func TestDeletePost(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, "body", links("del.md", "target.md"))

	if err := db.DeletePost("del.md"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted post still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertPost(PostRow{Path: "up.md", Title: "Old", Checksum: "1", UpdatedAt: now}, "old body", links("up.md", "x.md"))
	_ = db.UpsertPost(PostRow{Path: "up.md", Title: "New", Checksum: "2", UpdatedAt: now}, "new body", links("up.md", "y.md"))

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "a.md", Checksum: "1"}, "", nil)
	_ = db.UpsertPost(PostRow{Path: "b.md", Checksum: "2"}, "", nil)

	got, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(got) != 2 || got["a.md"] != "1" || got["b.md"] != "2" {
		t.Errorf("AllChecksums = %v", got)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(PostRow{Path: "s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}
