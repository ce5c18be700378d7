// Package watcher reloads the served catalog when its files change on disk.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/intcat/pkg/catalog"
)

// LoadFunc builds a fresh catalog snapshot.
type LoadFunc func() (*catalog.QueryService, error)

// Options configures a CatalogWatcher.
type Options struct {
	// DebounceMs groups bursts of events into one reload.
	// Default: 200ms
	DebounceMs int

	// Patterns select catalog documents when watching a directory.
	// Default: catalog.DefaultPatterns
	Patterns []string

	// IgnorePatterns are matched against the file's base name.
	IgnorePatterns []string

	// OnReload, if set, runs after every reload attempt with its error.
	OnReload func(err error)
}

// DefaultOptions returns recommended watch options.
func DefaultOptions() Options {
	return Options{
		DebounceMs:     200,
		Patterns:       catalog.DefaultPatterns,
		IgnorePatterns: []string{"*.swp", "*.tmp", "*~", ".#*"},
	}
}

// Stats reports reload activity.
type Stats struct {
	Reloads   uint64
	Failures  uint64
	IsRunning bool
}

// CatalogWatcher watches a catalog file or directory and swaps a new
// snapshot into the store after each debounced change. A reload that fails
// to load or validate is logged and the previous snapshot keeps serving.
//
// Usage:
//
//	w, err := watcher.New(path, store, load, watcher.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
type CatalogWatcher struct {
	path   string // absolute
	isDir  bool
	store  *catalog.Store
	load   LoadFunc
	opts   Options
	logger *slog.Logger

	fsw *fsnotify.Watcher

	reloads  atomic.Uint64
	failures atomic.Uint64

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, store *catalog.Store, load LoadFunc, opts Options, logger *slog.Logger) (*CatalogWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DebounceMs <= 0 {
		opts.DebounceMs = 200
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = catalog.DefaultPatterns
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &CatalogWatcher{
		path:   abs,
		isDir:  info.IsDir(),
		store:  store,
		load:   load,
		opts:   opts,
		logger: logger,
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *CatalogWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	if err := w.addWatches(); err != nil {
		return err
	}

	w.started = true
	w.wg.Add(1)
	go w.eventLoop()

	w.logger.Info("catalog watcher started", "path", w.path, "dir", w.isDir)
	return nil
}

// Stop stops watching and waits for the event loop to exit.
// Safe to call multiple times.
func (w *CatalogWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	err := w.fsw.Close()
	w.logger.Info("catalog watcher stopped", "reloads", w.reloads.Load(), "failures", w.failures.Load())
	return err
}

// GetStats returns watcher statistics.
func (w *CatalogWatcher) GetStats() Stats {
	w.mu.Lock()
	running := w.started && !w.stopped
	w.mu.Unlock()

	return Stats{
		Reloads:   w.reloads.Load(),
		Failures:  w.failures.Load(),
		IsRunning: running,
	}
}

// addWatches registers the directories to watch. A single file is watched
// through its parent directory so editors that replace the file by rename
// are still seen.
func (w *CatalogWatcher) addWatches() error {
	if !w.isDir {
		dir := filepath.Dir(w.path)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}

	return filepath.WalkDir(w.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.path && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if path == w.path {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// eventLoop owns the debounce timer, so no reload ever runs after Stop returns.
func (w *CatalogWatcher) eventLoop() {
	defer w.wg.Done()

	debounce := time.Duration(w.opts.DebounceMs) * time.Millisecond
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("catalog watcher error", "error", err)

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

// handleEvent reports whether event should trigger a reload.
func (w *CatalogWatcher) handleEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Clean(event.Name)
	if w.shouldIgnore(name) {
		return false
	}

	if !w.isDir {
		return name == w.path
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			if err := w.fsw.Add(name); err != nil {
				w.logger.Warn("failed to watch directory", "path", name, "error", err)
			}
			// Files may land in it before the watch is registered.
			return true
		}
	}

	rel, err := filepath.Rel(w.path, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.Patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			w.logger.Debug("catalog file event", "op", event.Op.String(), "file", rel)
			return true
		}
	}
	return false
}

func (w *CatalogWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.opts.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *CatalogWatcher) reload() {
	start := time.Now()
	qs, err := w.load()
	if err != nil {
		w.failures.Add(1)
		w.logger.Warn("catalog reload failed, keeping previous catalog", "path", w.path, "error", err)
	} else {
		w.store.Swap(qs)
		w.reloads.Add(1)
		w.logger.Info("catalog reloaded",
			"path", w.path,
			"integrations", qs.Len(),
			"generation", w.store.Generation(),
			"duration_ms", time.Since(start).Milliseconds())
	}

	if w.opts.OnReload != nil {
		w.opts.OnReload(err)
	}
}
