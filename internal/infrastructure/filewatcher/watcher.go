// Package filewatcher feeds files dropped directly into the upload root
// through the classification pipeline without an upload request.
package filewatcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the upload root recursively and reports files once
// they have stopped changing for the settle delay. Keys are relative to
// the root, slash separated, matching storage keys.
type Watcher struct {
	root        string
	settleDelay time.Duration
	logger      *slog.Logger
	watcher     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(root string, settleDelay time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}
	return &Watcher{
		root:        abs,
		settleDelay: settleDelay,
		logger:      logger,
		watcher:     fsw,
		pending:     make(map[string]*time.Timer),
	}, nil
}

// Watch emits storage keys for settled files until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	if err := w.addRecursive(w.root); err != nil {
		return nil, err
	}

	keys := make(chan string, 100)

	go func() {
		defer close(keys)
		for {
			select {
			case <-ctx.Done():
				w.cancelPending()
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(ctx, event, keys)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", "error", err)
			}
		}
	}()

	return keys, nil
}

func (w *Watcher) Close() error {
	w.cancelPending()
	return w.watcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, keys chan<- string) {
	if event.Op&fsnotify.Create != 0 {
		// New directories need their own watch to stay recursive.
		if w.isDir(event.Name) {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	key, ok := w.keyFor(event.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, exists := w.pending[key]; exists {
		timer.Reset(w.settleDelay)
		return
	}
	w.pending[key] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()

		select {
		case keys <- key:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) keyFor(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) isDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, timer := range w.pending {
		timer.Stop()
		delete(w.pending, key)
	}
}
