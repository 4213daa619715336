package main

import (
	"github.com/spf13/cobra"

	"smelt/internal/version"
)

var (
	// workspaceFlag overrides workspace root auto-detection
	workspaceFlag string
)

var rootCmd = &cobra.Command{
	Use:   "smelt",
	Short: "smelt - code smell cache and workspace reconciler",
	Long: `smelt detects, caches, and tracks the freshness of code smell findings
for the Python files in a workspace. Results are cached by exact content
hash, so a file is only re-analyzed when its bytes actually change, and the
cache stays correct across edits, renames, deletions, and analyzer outages.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("smelt version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "",
		"Workspace root (default: auto-detected from the current directory)")
}
