package chunk

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher refreshes a Repository when the backing chunk file changes on
// disk, so edits made outside the running process show up without a restart.
// Events are debounced because atomic replaces surface as a create+rename
// burst.
type Watcher struct {
	repo     *Repository
	path     string
	debounce time.Duration
	onReload func() // optional; called after each successful refresh
}

// NewWatcher creates a Watcher for the given repository and chunk file path.
// onReload may be nil.
func NewWatcher(repo *Repository, path string, onReload func()) *Watcher {
	return &Watcher{
		repo:     repo,
		path:     path,
		debounce: 100 * time.Millisecond,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled. The watch is on the parent directory:
// rename-based replaces remove the watched inode, so watching the file
// itself would go silent after the first write.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.repo.Refresh(); err != nil {
				slog.Warn("chunk file changed but reload failed", "path", w.path, "error", err)
				continue
			}
			slog.Debug("chunk file reloaded", "path", w.path)
			if w.onReload != nil {
				w.onReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("chunk watcher error", "error", err)
		}
	}
}
