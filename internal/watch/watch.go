// Package watch re-runs a document handler whenever matching files under a
// set of directories are created or modified.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is handled.
const DefaultDebounce = 200 * time.Millisecond

// Handler is called with the absolute path of a changed file.
type Handler func(ctx context.Context, absPath string)

// Config controls a watcher.
type Config struct {
	// Dirs are absolute directories to watch.
	Dirs []string
	// Recursive also watches subdirectories, including ones created later.
	Recursive bool
	// Match filters the files passed to the handler.
	Match func(absPath string) bool
	// Debounce coalesces bursts of events on one path. Zero means DefaultDebounce.
	Debounce time.Duration
}

// Watch processes file change events until ctx is cancelled. Handler calls
// are serialized: at most one runs at a time.
func Watch(ctx context.Context, cfg Config, logger *slog.Logger, handle Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range cfg.Dirs {
		if err := addDirs(w, dir, cfg.Recursive); err != nil {
			return err
		}
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("watcher: started", slog.Any("dirs", cfg.Dirs))

	// Timers fire into ready; the loop below owns pending and calls handle.
	ready := make(chan string, 64)
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(debounce)
			return
		}
		pending[path] = time.AfterFunc(debounce, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	defer func() {
		mu.Lock()
		for _, t := range pending {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case path := <-ready:
			handle(ctx, path)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 && cfg.Recursive {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirs(w, absPath, true); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					scheduleExisting(absPath, cfg.Match, schedule)
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if cfg.Match != nil && !cfg.Match(absPath) {
				continue
			}
			schedule(absPath)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// scheduleExisting queues files that were already present in a directory
// created while watching, since no events will arrive for them.
func scheduleExisting(dir string, match func(string) bool, schedule func(string)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if match == nil || match(path) {
			schedule(path)
		}
		return nil
	})
}

// addDirs adds root, and its subdirectories when recursive, to the watcher.
func addDirs(w *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
