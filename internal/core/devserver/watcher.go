package devserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns file system changes in the project into reload events.
type Watcher struct {
	paths    []string
	hub      *Hub
	logger   *zap.Logger
	debounce time.Duration
	now      func() time.Time

	// Directories watched for their own sake, and single files watched
	// through their parent directory.
	dirs  map[string]bool
	files map[string]bool
}

// NewWatcher watches paths (files or directories, directories recursively)
// and broadcasts changes on hub. Events for the same file within debounce of
// each other are coalesced.
func NewWatcher(paths []string, hub *Hub, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		paths:    paths,
		hub:      hub,
		logger:   logger,
		debounce: debounce,
		now:      time.Now,
		dirs:     make(map[string]bool),
		files:    make(map[string]bool),
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	for _, p := range w.paths {
		if err := w.add(fw, p); err != nil {
			w.logger.Warn("failed to watch path", zap.String("path", p), zap.Error(err))
		}
	}

	last := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, last)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, last map[string]time.Time) {
	if ev.Op == fsnotify.Chmod || isIgnored(ev.Name) || !w.covers(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.add(fw, ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
		}
	}

	now := w.now()
	if t, ok := last[ev.Name]; ok && now.Sub(t) < w.debounce {
		return
	}
	last[ev.Name] = now

	w.logger.Info("file changed, reloading clients", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
	w.hub.Broadcast(Event{Path: ev.Name, Op: ev.Op.String(), At: now})
}

// covers reports whether a change to name should trigger a reload.
func (w *Watcher) covers(name string) bool {
	name = filepath.Clean(name)
	return w.dirs[filepath.Dir(name)] || w.dirs[name] || w.files[name]
}

// add watches path. Directories are walked so nested directories are watched
// too (fsnotify is not recursive). Files are watched through their parent
// directory so editors that save by renaming keep triggering events.
func (w *Watcher) add(fw *fsnotify.Watcher, path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.files[path] = true
		return fw.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && isIgnored(p) {
			return filepath.SkipDir
		}
		w.dirs[filepath.Clean(p)] = true
		return fw.Add(p)
	})
}

// isIgnored skips editor swap files, dotfiles and build output.
func isIgnored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		base == "node_modules",
		base == "dist":
		return true
	}
	return false
}
