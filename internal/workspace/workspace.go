// Package workspace resolves the analyzed Python workspace: its root
// directory and the project metadata declared in pyproject.toml.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rootMarkers identify a Python project root, in preference order
var rootMarkers = []string{"pyproject.toml", "setup.py", "setup.cfg", ".git"}

// FindRoot walks upward from start looking for a project marker.
// Returns the absolute path of the first directory containing one, or the
// absolute start directory when no marker is found.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

// ModuleName converts a workspace-relative file path to the dotted Python
// module name used in smell reports
func ModuleName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	rel = strings.TrimSuffix(rel, ".py")
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, "/__init__")

	return strings.ReplaceAll(rel, "/", ".")
}
