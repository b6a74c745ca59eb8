package index

import (
	"context"
	"log/slog"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/storage"
	"github.com/starford/quire/internal/syntax"
)

// Indexer keeps a DB in step with the posts under a storage root.
type Indexer struct {
	db      *DB
	store   storage.Provider
	parser  *syntax.Parser
	resolve PathResolver
	logger  *slog.Logger
}

// NewIndexer creates an Indexer. resolve maps site-absolute link targets to
// content paths and may be nil.
func NewIndexer(db *DB, store storage.Provider, p *syntax.Parser, resolve PathResolver, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{db: db, store: store, parser: p, resolve: resolve, logger: logger}
}

// DB returns the underlying index database.
func (ix *Indexer) DB() *DB {
	return ix.db
}

// Sync walks the content root and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func (ix *Indexer) Sync(ctx context.Context) error {
	metas, err := ix.store.List("")
	if err != nil {
		return err
	}

	checksums, err := ix.db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return err
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := ix.store.Read(m.Path)
		if err != nil {
			ix.logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := ix.IndexFile(ctx, m.Path, data); err != nil {
			ix.logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			ix.logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := ix.db.DeletePost(p); err != nil {
				ix.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				ix.logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile analyzes data and upserts it into the DB.
func (ix *Indexer) IndexFile(ctx context.Context, rel string, data []byte) error {
	a, err := Analyze(ctx, ix.parser, ix.resolve, rel, data)
	if err != nil {
		return err
	}
	a.Row.Checksum = checksum.Sum(data)
	return ix.db.UpsertPost(a.Row, a.Body, a.Links)
}
