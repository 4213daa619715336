// Package status maintains the per-path detection state index.
//
// The tracker is a derived, in-memory view: it holds nothing authoritative
// and can always be rebuilt by replaying the result store (which is exactly
// what bootstrap does).
package status

import (
	"sort"
	"sync"

	"smelt/internal/logging"
	"smelt/internal/smells"
)

// Tracker indexes path -> FileStatus and path -> last known findings
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]smells.FileStatus
	findings map[string][]smells.Smell
	logger   *logging.Logger
}

// NewTracker creates an empty tracker
func NewTracker(logger *logging.Logger) *Tracker {
	return &Tracker{
		statuses: make(map[string]smells.FileStatus),
		findings: make(map[string][]smells.Smell),
		logger:   logger,
	}
}

// SetStatus records the detection status for a path
func (t *Tracker) SetStatus(path string, status smells.FileStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[path] = status
}

// GetStatus returns the status for a path, defaulting to not_detected
func (t *Tracker) GetStatus(path string) smells.FileStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.statuses[path]; ok {
		return s
	}
	return smells.StatusNotDetected
}

// SetSmells records the last known findings for a path and moves its status
// to passed or no_issues accordingly
func (t *Tracker) SetSmells(path string, findings []smells.Smell) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.findings[path] = findings
	t.statuses[path] = smells.StatusForFindings(findings)
}

// Smells returns the last known findings for a path
func (t *Tracker) Smells(path string) []smells.Smell {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.findings[path]
}

// MarkOutdated flags a path whose content changed after it was cached
func (t *Tracker) MarkOutdated(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[path] = smells.StatusOutdated
}

// IsOutdated reports whether a path is flagged outdated
func (t *Tracker) IsOutdated(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.statuses[path] == smells.StatusOutdated
}

// RemoveFile drops all state for a path, reporting whether anything was
// actually present. Callers use the result to decide whether to notify.
func (t *Tracker) RemoveFile(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, hadStatus := t.statuses[path]
	_, hadFindings := t.findings[path]
	delete(t.statuses, path)
	delete(t.findings, path)

	return hadStatus || hadFindings
}

// ResetAll clears the entire index, used on full cache wipes
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses = make(map[string]smells.FileStatus)
	t.findings = make(map[string][]smells.Smell)
	t.logger.Debug("Status tracker reset", nil)
}

// Paths returns every tracked path, sorted
func (t *Tracker) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool, len(t.statuses))
	for p := range t.statuses {
		seen[p] = true
	}
	for p := range t.findings {
		seen[p] = true
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a copy of the full status index
func (t *Tracker) Snapshot() map[string]smells.FileStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]smells.FileStatus, len(t.statuses))
	for p, s := range t.statuses {
		out[p] = s
	}
	return out
}
