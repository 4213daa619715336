package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"smelt/internal/logging"
)

// EventType classifies a filesystem event
type EventType int

const (
	// EventCreate indicates a new file appeared
	EventCreate EventType = iota
	// EventChange indicates file content was modified
	EventChange
	// EventDelete indicates a file was removed
	EventDelete
	// EventRename indicates a file was renamed away from its path
	EventRename
)

// String returns the event type name
func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventChange:
		return "change"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one debounced filesystem event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// WatchConfig configures the workspace watcher
type WatchConfig struct {
	// DebounceMs is the quiet window before a batch is emitted
	DebounceMs int
	// IgnorePatterns are base-name globs and directory names to skip
	IgnorePatterns []string
	// BufferSize bounds the in-flight event channel
	BufferSize int
}

// DefaultWatchConfig returns the default watcher settings
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceMs: 300,
		IgnorePatterns: []string{
			".git",
			".smelt",
			"__pycache__",
			".venv",
			"venv",
			"node_modules",
			"*.swp",
			"*.tmp",
		},
		BufferSize: 1024,
	}
}

// Watcher recursively watches a workspace root and emits debounced event
// batches to a handler. New subdirectories are added to the watch set as
// they appear.
type Watcher struct {
	root      string
	config    WatchConfig
	notifier  *fsnotify.Watcher
	debouncer *BatchDebouncer
	logger    *logging.Logger
}

// NewWatcher creates a watcher over root, delivering batches to handler
func NewWatcher(root string, config WatchConfig, handler func([]Event), logger *logging.Logger) (*Watcher, error) {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if config.DebounceMs <= 0 {
		config.DebounceMs = DefaultWatchConfig().DebounceMs
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultWatchConfig().BufferSize
	}

	return &Watcher{
		root:      root,
		config:    config,
		notifier:  notifier,
		debouncer: NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, handler),
		logger:    logger,
	}, nil
}

// Start adds the watch set and begins processing events until ctx is done
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	go w.loop(ctx)

	w.logger.Info("Watching workspace", map[string]interface{}{
		"root":       w.root,
		"debounceMs": w.config.DebounceMs,
	})
	return nil
}

// Close stops the underlying notifier
func (w *Watcher) Close() error {
	w.debouncer.Cancel()
	return w.notifier.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // Skip inaccessible entries, keep walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		return w.notifier.Add(path)
	})
}

// IsIgnored checks a path against the configured ignore patterns
func (w *Watcher) IsIgnored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.config.IgnorePatterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.debouncer.Flush()
			return

		case ev, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			if w.IsIgnored(ev.Name) {
				continue
			}

			// Chmod-only events carry no content change
			if ev.Op == fsnotify.Chmod {
				continue
			}

			// Watch new directories as they appear
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.notifier.Add(ev.Name)
					continue
				}
			}

			w.debouncer.Add(Event{
				Type:      convertOp(ev.Op),
				Path:      ev.Name,
				Timestamp: time.Now(),
			})

		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func convertOp(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventChange
	}
}
