package smells

// FileStatus is the per-path detection state.
// Status is keyed by path, not hash: it describes the current file, while
// cache entries describe content versions.
type FileStatus string

const (
	// StatusNotDetected means the file has never been analyzed
	StatusNotDetected FileStatus = "not_detected"
	// StatusQueued means a detection is in flight
	StatusQueued FileStatus = "queued"
	// StatusPassed means detection succeeded and found smells
	StatusPassed FileStatus = "passed"
	// StatusNoIssues means detection succeeded with zero findings
	StatusNoIssues FileStatus = "no_issues"
	// StatusFailed means the last detection attempt failed
	StatusFailed FileStatus = "failed"
	// StatusOutdated means the file changed since its cached results were computed
	StatusOutdated FileStatus = "outdated"
	// StatusServerDown means the analyzer was unreachable and no cache entry existed
	StatusServerDown FileStatus = "server_down"
)

// StatusForFindings maps a completed detection to its status
func StatusForFindings(findings []Smell) FileStatus {
	if len(findings) > 0 {
		return StatusPassed
	}
	return StatusNoIssues
}
