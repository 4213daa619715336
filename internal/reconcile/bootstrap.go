package reconcile

import (
	"os"
	"path/filepath"
	"strings"

	"smelt/internal/logging"
	"smelt/internal/status"
	"smelt/internal/storage"
)

// BootstrapSummary counts what startup reconciliation found
type BootstrapSummary struct {
	Valid        int `json:"valid"`
	Removed      int `json:"removed"`
	WithFindings int `json:"withFindings"`
	Clean        int `json:"clean"`
	Skipped      int `json:"skipped"`
}

// Bootstrap reconciles persisted cache contents against the live filesystem
// and the configured workspace root, then rebuilds the status tracker from
// the surviving entries.
//
// An association is dropped when its path lies outside the root or the file
// no longer exists. A path whose checks fail unexpectedly is skipped without
// aborting the sweep.
func Bootstrap(results *storage.Results, tracker *status.Tracker, root string, logger *logging.Logger) (*BootstrapSummary, error) {
	assocs, err := results.Associations()
	if err != nil {
		return nil, err
	}

	summary := &BootstrapSummary{}

	for _, assoc := range assocs {
		inside, err := insideRoot(root, assoc.Path)
		if err != nil {
			summary.Skipped++
			logger.Warn("Skipping unverifiable cache entry", map[string]interface{}{
				"path":  assoc.Path,
				"error": err.Error(),
			})
			continue
		}

		exists := false
		if inside {
			if _, statErr := os.Stat(assoc.Path); statErr == nil {
				exists = true
			} else if !os.IsNotExist(statErr) {
				summary.Skipped++
				logger.Warn("Skipping unverifiable cache entry", map[string]interface{}{
					"path":  assoc.Path,
					"error": statErr.Error(),
				})
				continue
			}
		}

		if !inside || !exists {
			if err := results.ForgetHash(assoc.Hash); err != nil {
				summary.Skipped++
				continue
			}
			summary.Removed++
			continue
		}

		findings, ok, err := results.GetByHash(assoc.Hash)
		if err != nil || !ok {
			// Association without an entry: left for re-detection
			summary.Skipped++
			continue
		}

		tracker.SetSmells(assoc.Path, findings)
		summary.Valid++
		if len(findings) > 0 {
			summary.WithFindings++
		} else {
			summary.Clean++
		}
	}

	logger.Info("Cache bootstrap complete", map[string]interface{}{
		"valid":        summary.Valid,
		"removed":      summary.Removed,
		"withFindings": summary.WithFindings,
		"clean":        summary.Clean,
		"skipped":      summary.Skipped,
	})
	return summary, nil
}

// insideRoot reports whether path is under root. An empty root accepts
// nothing: without a configured workspace there is nothing to keep.
func insideRoot(root, path string) (bool, error) {
	if root == "" {
		return false, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false, nil //nolint:nilerr // Unrelatable path is simply outside
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
