package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smelt/internal/reconcile"
	"smelt/internal/smells"
	"smelt/internal/workspace"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status [file...]",
	Short: "Show detection status for tracked files",
	Long: `Show the per-file detection status derived from the cache.

Without arguments, every path known to the cache is listed. Status is about
the current file content: a cached file whose content changed shows as
outdated until re-detected.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is one row of status output
type statusReport struct {
	Path   string            `json:"path" yaml:"path"`
	Status smells.FileStatus `json:"status" yaml:"status"`
	Smells int               `json:"smells" yaml:"smells"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	// Rebuild the derived view from the persisted store
	if _, err := reconcile.Bootstrap(rt.results, rt.tracker, rt.root, rt.logger); err != nil {
		return err
	}

	var paths []string
	if len(args) > 0 {
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return err
			}
			paths = append(paths, abs)
		}
	} else {
		paths = rt.tracker.Paths()
	}

	project, err := workspace.ReadProject(rt.root)
	if err != nil {
		return err
	}

	reports := make([]statusReport, 0, len(paths))
	for _, p := range paths {
		st := rt.tracker.GetStatus(p)

		// A surviving cache entry can still be stale against the live file
		if st == smells.StatusPassed || st == smells.StatusNoIssues {
			if ok, hasErr := rt.results.Has(p); hasErr == nil && !ok {
				st = smells.StatusOutdated
			}
		}

		reports = append(reports, statusReport{
			Path:   p,
			Status: st,
			Smells: len(rt.tracker.Smells(p)),
		})
	}

	switch statusFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(reports)
	default:
		fmt.Printf("Workspace: %s (%s)\n", project.Name, rt.root)
		if len(reports) == 0 {
			fmt.Println("No tracked files.")
			return nil
		}
		for _, r := range reports {
			fmt.Printf("  %-12s %3d  %s\n", r.Status, r.Smells, r.Path)
		}
		return nil
	}
}
