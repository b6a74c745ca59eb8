package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/quire/internal/checksum"
)

// Event kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, path string)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the content root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// Writes to the same file within the debounce window are coalesced into a
// single re-index. New directories created at runtime are automatically
// added to the watch list. Rename events trigger a reconciliation pass that
// removes stale index entries whose files no longer exist on disk.
func (ix *Indexer) Watch(ctx context.Context, debounce time.Duration, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root := ix.store.Root()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	ix.logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, rel string) {
		if cb != nil {
			cb(kind, rel)
		}
	}

	// pending holds files written since the last flush; the value records
	// whether the first event for the file was a Create.
	pending := make(map[string]bool)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	schedule := func(t **time.Timer, ch *<-chan time.Time) {
		if *t == nil {
			*t = time.NewTimer(debounce)
			*ch = (*t).C
		} else {
			(*t).Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			ix.logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for rel, created := range pending {
				ix.reindex(ctx, rel, created, emit)
			}
			clear(pending)

		case <-reconcileCh:
			ix.reconcile(ctx, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						ix.logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						ix.logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Index any .md files already in the new directory.
					ix.indexNewDir(ctx, root, absPath, emit)
					continue
				}
			}

			// Only process .md files from here on.
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if created, seen := pending[rel]; !seen || !created {
					pending[rel] = ev.Op&fsnotify.Create != 0
				}
				schedule(&flushTimer, &flushCh)

			case ev.Op&fsnotify.Remove != 0:
				delete(pending, rel)
				if delErr := ix.db.DeletePost(rel); delErr != nil {
					ix.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				ix.logger.Debug("watcher: deleted", slog.String("path", rel))
				emit(EventDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir).
				delete(pending, rel)
				if delErr := ix.db.DeletePost(rel); delErr != nil {
					ix.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					ix.logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					emit(EventDeleted, rel)
				}
				schedule(&reconcileTimer, &reconcileCh)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (ix *Indexer) reindex(ctx context.Context, rel string, created bool, emit EventCallback) {
	data, err := ix.store.Read(rel)
	if err != nil {
		// Removed again before the flush; the Remove event handles it.
		ix.logger.Debug("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if !created {
		if stored, err := ix.db.GetChecksum(rel); err == nil && checksum.Unchanged(data, stored) {
			ix.logger.Debug("watcher: content unchanged", slog.String("path", rel))
			return
		}
	}
	if err := ix.IndexFile(ctx, rel, data); err != nil {
		ix.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := EventUpdated
	if created {
		kind = EventCreated
	}
	ix.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	emit(kind, rel)
}

// reconcile does a lightweight sync using batch lookups:
// finds index entries without a corresponding file on disk and removes them,
// and indexes on-disk files that are missing from the index or changed.
func (ix *Indexer) reconcile(ctx context.Context, emit EventCallback) {
	checksums, err := ix.db.AllChecksums()
	if err != nil {
		ix.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := ix.store.List("")
	if err != nil {
		ix.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := ix.db.DeletePost(p); delErr == nil {
				ix.logger.Debug("reconcile: removed stale", slog.String("path", p))
				emit(EventDeleted, p)
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := ix.store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := ix.IndexFile(ctx, p, data); idxErr == nil {
			kind := EventCreated
			if _, known := checksums[p]; known {
				kind = EventUpdated
			}
			ix.logger.Debug("reconcile: indexed", slog.String("path", p), slog.String("op", kind))
			emit(kind, p)
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func (ix *Indexer) indexNewDir(ctx context.Context, root, dirPath string, emit EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := ix.store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := ix.IndexFile(ctx, rel, data); idxErr == nil {
			ix.logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			emit(EventCreated, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
// Hidden directories are skipped.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
