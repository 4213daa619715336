// Package detect orchestrates smell detection: cache-first lookup, remote
// analysis on miss, and the status transitions every caller observes.
package detect

import (
	"context"

	"smelt/internal/analyzer"
	"smelt/internal/errors"
	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/smells"
	"smelt/internal/status"
	"smelt/internal/storage"
)

// Result is the outcome of one detection request
type Result struct {
	Path      string            `json:"path"`
	Status    smells.FileStatus `json:"status"`
	Findings  []smells.Smell    `json:"findings"`
	FromCache bool              `json:"fromCache"`
}

// Detector answers "what smells does this file's current content have",
// consulting the result store before the remote analyzer.
type Detector struct {
	results *storage.Results
	tracker *status.Tracker
	client  analyzer.Client
	filters *filters.Store
	logger  *logging.Logger
}

// NewDetector wires the orchestrator to its collaborators
func NewDetector(results *storage.Results, tracker *status.Tracker, client analyzer.Client, filterStore *filters.Store, logger *logging.Logger) *Detector {
	return &Detector{
		results: results,
		tracker: tracker,
		client:  client,
		filters: filterStore,
		logger:  logger,
	}
}

// Detect resolves smells for a path.
//
// Cheap path: a fresh cache entry for the current content hash is returned
// directly and only the tracker is updated. Otherwise the analyzer is
// invoked; its result is written back keyed by the content hash that was
// current at completion time. If the analyzer is unreachable and no cache
// entry exists, the path is marked server_down and no network call is made.
func (d *Detector) Detect(ctx context.Context, path string) (*Result, error) {
	cached, ok, err := d.results.Get(path)
	if err != nil {
		// ContentReadFailed propagates; caching a garbage result would be worse
		return nil, err
	}
	if ok {
		d.tracker.SetSmells(path, cached)
		d.logger.Debug("Cache hit", map[string]interface{}{
			"path":  path,
			"count": len(cached),
		})
		return &Result{
			Path:      path,
			Status:    smells.StatusForFindings(cached),
			Findings:  cached,
			FromCache: true,
		}, nil
	}

	if !d.client.IsReachable(ctx) {
		d.tracker.SetStatus(path, smells.StatusServerDown)
		return nil, errors.New(errors.ServerUnavailable, "analyzer is unreachable and no cached results exist")
	}

	d.tracker.SetStatus(path, smells.StatusQueued)

	findings, err := d.client.Detect(ctx, path, d.filters.Enabled())
	if err != nil {
		d.tracker.SetStatus(path, smells.StatusFailed)
		d.logger.Warn("Detection failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}

	// The write hashes the file again: if the content changed while the
	// analysis was in flight, the result lands under the old, superseded
	// hash only in the benign orphaned-entry sense described by the store.
	if err := d.results.Set(path, findings); err != nil {
		d.tracker.SetStatus(path, smells.StatusFailed)
		return nil, err
	}

	d.tracker.SetSmells(path, findings)

	return &Result{
		Path:     path,
		Status:   smells.StatusForFindings(findings),
		Findings: findings,
	}, nil
}
