package notion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback receives the layout kind (databases, pages, blocks) and the
// record id of a snapshot file that was created, written, removed or renamed.
type ChangeCallback func(kind, id string)

// Watch observes the snapshot directory and reports changed records until ctx
// is cancelled. Bursts of writes to the same file are coalesced over debounce.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}
	for _, kind := range []string{SnapshotDatabases, SnapshotPages, SnapshotBlocks} {
		dir := filepath.Join(root, kind)
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			if addErr := w.Add(dir); addErr != nil {
				logger.Warn("snapshot watcher: add dir failed", slog.String("path", dir), slog.String("error", addErr.Error()))
			}
		}
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	logger.Info("snapshot watcher: started", slog.String("root", root))

	pending := make(map[string][2]string)
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("snapshot watcher: stopped")
			return nil

		case <-flushCh:
			for _, change := range pending {
				logger.Debug("snapshot watcher: changed", slog.String("kind", change[0]), slog.String("id", change[1]))
				if cb != nil {
					cb(change[0], change[1])
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// A layout directory created after startup.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.Add(ev.Name); addErr != nil {
						logger.Warn("snapshot watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			kind, id, ok := classify(root, ev.Name)
			if !ok {
				continue
			}
			pending[ev.Name] = [2]string{kind, id}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("snapshot watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// classify maps <root>/<kind>/<id>.json to (kind, id).
func classify(root, path string) (kind, id string, ok bool) {
	if !strings.HasSuffix(path, ".json") {
		return "", "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 {
		return "", "", false
	}
	switch parts[0] {
	case SnapshotDatabases, SnapshotPages, SnapshotBlocks:
		return parts[0], strings.TrimSuffix(parts[1], ".json"), true
	}
	return "", "", false
}
