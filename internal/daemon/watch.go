package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// setupFileWatcher creates a watcher covering root and every directory
// below it.
func setupFileWatcher(root string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addDirsRecursive(watcher, root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// newDebouncer returns a request channel and a trigger function. Calls to
// trigger within the window collapse into a single request.
func newDebouncer(window time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	requests := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(window, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}

	return requests, trigger
}

// handleFileEvent processes one filesystem event. New directories join the
// watch set so files created inside them keep triggering passes.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	trigger()
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger a pass.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	if base == ".DS_Store" || base == "Thumbs.db" {
		return true
	}

	return false
}
