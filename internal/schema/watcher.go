package schema

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/internal/scheduler"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
)

const defaultReloadDelay = 100 * time.Millisecond

// Watcher reloads a MemoryRegistry whenever schema files under a directory
// change. Bursts of file events collapse into one reload.
type Watcher struct {
	dir      string
	registry *MemoryRegistry
	logger   interfaces.Logger
	reload   *scheduler.Debouncer
	onReload func([]Schema)
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithReloadDelay overrides the event coalescing delay.
func WithReloadDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		if delay > 0 {
			w.reload = scheduler.New(delay)
		}
	}
}

// WithReloadHook is called with the new schema set after every successful reload.
func WithReloadHook(fn func([]Schema)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher binds dir to registry.
func NewWatcher(dir string, registry *MemoryRegistry, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		registry: registry,
		logger:   logging.NoOp(),
		reload:   scheduler.New(defaultReloadDelay),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load performs a synchronous reload.
func (w *Watcher) Load() error {
	schemas, err := LoadDir(w.dir)
	if err != nil {
		return err
	}
	if err := w.registry.Replace(schemas); err != nil {
		return err
	}
	w.logger.Info("schema.registry.reloaded", "dir", w.dir, "count", len(schemas))
	if w.onReload != nil {
		w.onReload(schemas)
	}
	return nil
}

// Run watches the directory until ctx is cancelled. A failed reload keeps
// the previous registry contents.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	defer w.reload.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsSchemaFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("schema.watch.event", "file", event.Name, "op", event.Op.String())
				w.reload.Schedule(func() {
					if err := w.Load(); err != nil {
						w.logger.Warn("schema.registry.reload_failed", "dir", w.dir, "error", err)
					}
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("schema.watch.error", "error", err)
		}
	}
}
