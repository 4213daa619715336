// Package reconcile keeps the result store and status tracker consistent
// with real filesystem and editor events, without re-running analysis
// eagerly.
package reconcile

import (
	"context"
	"strings"
	"sync"

	"smelt/internal/hashing"
	"smelt/internal/logging"
	"smelt/internal/status"
	"smelt/internal/storage"
)

// RelintFunc re-invokes detection for a path, used for relint-on-save
type RelintFunc func(ctx context.Context, path string) error

// Observer is notified after the engine mutates cache or status state
type Observer func(path string, event EventType)

// EngineConfig configures reconciliation behavior
type EngineConfig struct {
	// Extensions are the file suffixes under reconciliation (default: .py)
	Extensions []string
	// RelintOnSave re-runs detection after a save instead of stopping at outdated
	RelintOnSave bool
	// Watch holds the watcher settings
	Watch WatchConfig
}

// DefaultEngineConfig returns the default reconciliation settings
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Extensions: []string{".py"},
		Watch:      DefaultWatchConfig(),
	}
}

// Engine is the change reconciliation engine.
//
// It never re-analyzes by itself: a content change only clears the stale
// entry and marks the path outdated, so the store never serves results for
// superseded content. Re-analysis stays consumer initiated (or opt-in via
// RelintOnSave).
type Engine struct {
	root    string
	config  EngineConfig
	results *storage.Results
	tracker *status.Tracker
	relint  RelintFunc
	logger  *logging.Logger

	watcher *Watcher

	mu        sync.Mutex
	observers []Observer
}

// NewEngine creates the engine for a workspace root. root may be empty, in
// which case Start is a no-op and no watcher is installed. relint may be nil.
func NewEngine(root string, config EngineConfig, results *storage.Results, tracker *status.Tracker, relint RelintFunc, logger *logging.Logger) *Engine {
	if len(config.Extensions) == 0 {
		config.Extensions = DefaultEngineConfig().Extensions
	}
	return &Engine{
		root:    root,
		config:  config,
		results: results,
		tracker: tracker,
		relint:  relint,
		logger:  logger,
	}
}

// AddObserver registers an observer for reconciliation outcomes
func (e *Engine) AddObserver(obs Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

func (e *Engine) notifyObservers(path string, event EventType) {
	e.mu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, obs := range observers {
		obs(path, event)
	}
}

// Start installs the workspace watcher. With no configured root this is a
// silent no-op: reconciliation simply does not run.
func (e *Engine) Start(ctx context.Context) error {
	if e.root == "" {
		e.logger.Debug("No workspace root configured, reconciliation disabled", nil)
		return nil
	}

	watcher, err := NewWatcher(e.root, e.config.Watch, func(events []Event) {
		e.handleBatch(ctx, events)
	}, e.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Close() //nolint:errcheck // start failed
		return err
	}
	e.watcher = watcher
	return nil
}

// Stop tears down the watcher
func (e *Engine) Stop() {
	if e.watcher != nil {
		e.watcher.Close() //nolint:errcheck // shutdown
		e.watcher = nil
	}
}

// Matches reports whether a path is of the analyzed kind
func (e *Engine) Matches(path string) bool {
	for _, ext := range e.config.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (e *Engine) handleBatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		if !e.Matches(ev.Path) {
			continue
		}
		switch ev.Type {
		case EventCreate:
			e.HandleCreate(ev.Path)
		case EventChange:
			// A write observed on disk is a save of the document
			e.HandleSave(ctx, ev.Path)
		case EventDelete, EventRename:
			e.HandleDelete(ev.Path)
		}
	}
}

// HandleCreate reacts to a new matching file appearing under the root.
// Editors that save via rename-replace surface the save as a Create on an
// already-tracked path, so those are handled as content changes; genuinely
// new files only refresh aggregate views.
func (e *Engine) HandleCreate(path string) {
	if _, tracked, err := e.results.KnownHash(path); err == nil && tracked {
		e.HandleChange(path)
		return
	}

	e.logger.Debug("File created", map[string]interface{}{
		"path": path,
	})
	e.notifyObservers(path, EventCreate)
}

// HandleChange reacts to modified content. It only acts when the path has
// cache bookkeeping: files never analyzed are not spuriously marked, and
// events that moved mtime without moving the bytes (touch, permission flips)
// are ignored by comparing the current content hash against the known one.
// The stale entry (keyed by the superseded hash) is removed whole and the
// path becomes outdated. Repeated changes before re-detection are idempotent.
func (e *Engine) HandleChange(path string) {
	known, tracked, err := e.results.KnownHash(path)
	if err != nil {
		e.logger.Error("Failed to look up cache bookkeeping", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	if !tracked {
		return
	}

	// An unreadable file falls through to the clear: deletion races are
	// handled the same way as real content changes
	if current, hashErr := hashing.HashFile(path); hashErr == nil && current == known {
		return
	}

	removed, err := e.results.ClearByKnownPath(path)
	if err != nil {
		e.logger.Error("Failed to clear stale cache entry", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	if !removed {
		return
	}

	e.tracker.MarkOutdated(path)
	e.logger.Debug("File outdated", map[string]interface{}{
		"path": path,
	})
	e.notifyObservers(path, EventChange)
}

// HandleDelete cleans up all bookkeeping for a removed file. Observers are
// only notified when something was actually tracked, to avoid noise for
// files that were never analyzed.
func (e *Engine) HandleDelete(path string) {
	removedEntry, err := e.results.ClearByKnownPath(path)
	if err != nil {
		e.logger.Error("Failed to clear deleted file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	removedStatus := e.tracker.RemoveFile(path)

	if removedEntry || removedStatus {
		e.logger.Debug("File removed from tracking", map[string]interface{}{
			"path": path,
		})
		e.notifyObservers(path, EventDelete)
	}
}

// HandleSave reacts to an editor save of a matching document. It is a
// change event; with RelintOnSave enabled, detection is re-invoked
// immediately instead of stopping at outdated.
func (e *Engine) HandleSave(ctx context.Context, path string) {
	if !e.Matches(path) {
		return
	}

	e.HandleChange(path)

	if e.config.RelintOnSave && e.relint != nil {
		if err := e.relint(ctx, path); err != nil {
			e.logger.Warn("Relint on save failed", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}

// Reassociate carries an existing cache entry to a renamed path without
// reanalysis. Bookkeeping only; the result entry is untouched.
func (e *Engine) Reassociate(hash, newPath string) error {
	if err := e.results.Reassociate(hash, newPath); err != nil {
		return err
	}
	e.notifyObservers(newPath, EventRename)
	return nil
}
