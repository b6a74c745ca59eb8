//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

// Without FTS5 the posts table itself is searched, so there is no shadow
// table to maintain.
func initFTS(_ *sql.DB) error { return nil }
func ftsUpsert(_ *sql.Tx, _ PostRow, _ string) error { return nil }
func ftsDelete(_ *sql.Tx, _ string) error { return nil }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches query as a literal substring of the title, description or
// body. Newer posts come first. The snippet is the description when the post
// has one, otherwise the start of the body.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.Query(`
		SELECT path, title,
		       CASE WHEN description != '' THEN description ELSE substr(body, 1, 200) END
		FROM posts
		WHERE title LIKE ?1 ESCAPE '\'
		   OR description LIKE ?1 ESCAPE '\'
		   OR body LIKE ?1 ESCAPE '\'
		ORDER BY date = '', date DESC, path
		LIMIT ?2
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: search scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
