package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/liveserve/liveserve/internal/broadcast"
)

// Bridge forwards filesystem change notifications for a directory tree into
// the reload Broadcaster. The underlying fsnotify watcher blocks on OS wait
// calls, so Run must be given its own goroutine.
type Bridge struct {
	root     string
	bc       *broadcast.Broadcaster
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// New creates a Bridge watching root recursively. Any failure here (missing
// directory, permissions, watcher creation) should be treated as fatal by
// the caller: a dev server that cannot watch its tree cannot live-reload.
func New(root string, bc *broadcast.Broadcaster, debounce time.Duration) (*Bridge, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch: stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: root %q is not a directory", root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	b := &Bridge{
		root:     root,
		bc:       bc,
		debounce: debounce,
		watcher:  watcher,
	}

	if err := b.addTree(root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch: register %q: %w", root, err)
	}
	return b, nil
}

// addTree registers dir and every directory below it with the watcher.
// fsnotify watches are not recursive, so each directory needs its own entry.
func (b *Bridge) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return b.watcher.Add(path)
	})
}

// Run forwards change events until ctx is cancelled. Each relevant event
// publishes one ChangeEvent, or arms the coalescing timer when a debounce
// window is configured. A single watcher error is logged and watching
// continues; if the event stream itself closes, the bridge stops permanently
// and no more reloads are published for the process lifetime.
func (b *Bridge) Run(ctx context.Context) {
	defer b.watcher.Close()

	slog.Info("watch: watching for changes", "root", b.root, "debounce", b.debounce)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-b.watcher.Events:
			if !ok {
				slog.Error("watch: event stream closed, live reload disabled", "root", b.root)
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			// A created directory needs its own watch entry, and its
			// contents may already exist (e.g. a directory move).
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := b.addTree(ev.Name); err != nil {
						slog.Error("watch: add directory failed", "path", ev.Name, "err", err)
					}
				}
			}

			if b.debounce <= 0 {
				b.bc.Publish()
				continue
			}
			if fire == nil {
				timer = time.NewTimer(b.debounce)
				fire = timer.C
			}

		case <-fire:
			timer = nil
			fire = nil
			b.bc.Publish()

		case err, ok := <-b.watcher.Errors:
			if !ok {
				slog.Error("watch: error stream closed, live reload disabled", "root", b.root)
				return
			}
			slog.Error("watch: watcher error", "err", err)
		}
	}
}
