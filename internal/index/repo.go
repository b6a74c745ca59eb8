package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Path        string
	Title       string
	Description string
	Date        string
	Checksum    string
	Metadata    map[string]string
	UpdatedAt   time.Time
}

// Summary converts the row into its listing form.
func (r PostRow) Summary() models.PostSummary {
	return models.PostSummary{
		Path:        r.Path,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
	}
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertPost inserts or replaces a post, its FTS entry, and links within a transaction.
func (db *DB) UpsertPost(p PostRow, body string, links []models.Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if p.Metadata == nil {
		p.Metadata = map[string]string{}
	}
	metaJSON, _ := json.Marshal(p.Metadata)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	// Upsert posts table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO posts (path, title, description, date, checksum, metadata, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			date        = excluded.date,
			checksum    = excluded.checksum,
			metadata    = excluded.metadata,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, p.Path, p.Title, p.Description, p.Date, p.Checksum, string(metaJSON), body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p, body); err != nil {
		return err
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, p.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			kind := l.Type
			if kind == "" {
				kind = LinkInline
			}
			if _, err := stmt.Exec(p.Path, l.Target, kind); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePost removes a post, its FTS entry, and outgoing links.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM posts WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a post, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const postColumns = `path, title, description, date, checksum, metadata, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (PostRow, error) {
	var (
		p        PostRow
		metaJSON string
	)
	if err := s.Scan(&p.Path, &p.Title, &p.Description, &p.Date, &p.Checksum, &metaJSON, &p.UpdatedAt); err != nil {
		return PostRow{}, err
	}
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &p.Metadata)
	}
	return p, nil
}

// GetPost returns the indexed row for path. A missing post yields an
// apperr.ErrNotFound error.
func (db *DB) GetPost(path string) (*PostRow, error) {
	p, err := scanPost(db.conn.QueryRow(`SELECT `+postColumns+` FROM posts WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: post %s", apperr.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return &p, nil
}

// ListPosts returns a page of posts ordered newest first, plus the total count.
// Posts without a date sort last.
func (db *DB) ListPosts(limit, offset int) ([]PostRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT `+postColumns+`
		FROM posts
		ORDER BY date = '', date DESC, path
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns all post paths that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// OutgoingLinks returns the links recorded for source.
func (db *DB) OutgoingLinks(source string) ([]models.Link, error) {
	rows, err := db.conn.Query(`SELECT source, target, type FROM links WHERE source = ? ORDER BY target`, source)
	if err != nil {
		return nil, fmt.Errorf("index: outgoing links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.Source, &l.Target, &l.Type); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
