package ecosystem

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the ecosystem definition watcher.
type WatcherConfig struct {
	// Path is the ecosystem definition file to watch.
	Path string

	// Patterns optionally restricts which files in the definition's
	// directory trigger a reload (doublestar globs against the base
	// name). Defaults to the definition file itself.
	Patterns []string

	// DebounceDelay is how long to wait for more changes before
	// reloading.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Watcher reloads the ecosystem definition when it changes on disk and
// emits the freshly parsed ecosystem. Consumers swap their ecosystem
// reference; in-flight describe calls keep the one they started with.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	dirty  bool
	reload chan *Ecosystem
}

// NewWatcher creates a watcher for the ecosystem definition file.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 500 * time.Millisecond
	}
	if len(config.Patterns) == 0 {
		config.Patterns = []string{filepath.Base(config.Path)}
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		reload:  make(chan *Ecosystem, 1),
	}, nil
}

// Reloads returns the channel of freshly loaded ecosystems.
func (w *Watcher) Reloads() <-chan *Ecosystem {
	return w.reload
}

// Start begins watching the definition's directory.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.config.Path)); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("ecosystem watcher started",
		"path", w.config.Path,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher. The reload channel closes once the event
// goroutine drains out.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents owns the reload channel: closing it here means no send
// can race a close.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.reload)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.matches(filepath.Base(event.Name)) {
				w.dirty = true
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("ecosystem watcher error", "error", err)

		case <-ticker.C:
			if !w.dirty {
				continue
			}
			w.dirty = false
			w.reloadDefinition()
		}
	}
}

func (w *Watcher) matches(name string) bool {
	for _, pattern := range w.config.Patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Watcher) reloadDefinition() {
	eco, err := Load(w.config.Path)
	if err != nil {
		// Keep serving the previous definition on a bad edit.
		w.logger.Error("ecosystem reload failed", "path", w.config.Path, "error", err)
		return
	}

	select {
	case w.reload <- eco:
		w.logger.Info("ecosystem reloaded", "path", w.config.Path,
			"resources", len(eco.Descriptions()))
	default:
		w.logger.Warn("ecosystem reload dropped, consumer busy")
	}
}
