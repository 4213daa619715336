package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"smelt/internal/detect"
	"smelt/internal/errors"
)

var detectFormat string

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Detect code smells in one or more files",
	Long: `Detect code smells in the given files.

A file whose exact content was analyzed before is answered from the cache
without contacting the analyzer. Otherwise the remote analyzer is invoked
and its results are cached under the file's current content hash.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var results []*detect.Result
	var failed bool

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return err
		}

		result, err := rt.detector.Detect(cmd.Context(), path)
		if err != nil {
			failed = true
			results = append(results, &detect.Result{
				Path:   path,
				Status: rt.tracker.GetStatus(path),
			})
			if errors.IsCode(err, errors.ServerUnavailable) {
				fmt.Fprintf(os.Stderr, "%s: analyzer is unreachable\n", path)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			}
			continue
		}
		results = append(results, result)
	}

	if detectFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printDetectHuman(results)
	}

	if failed {
		return fmt.Errorf("detection failed for one or more files")
	}
	return nil
}

func printDetectHuman(results []*detect.Result) {
	for _, r := range results {
		source := ""
		if r.FromCache {
			source = " (cached)"
		}
		fmt.Printf("%s: %s%s\n", r.Path, r.Status, source)
		for _, s := range r.Findings {
			for _, occ := range s.Occurrences {
				fmt.Printf("  %d:%d  %s  %s [%s]\n", occ.Line, occ.Column, s.Symbol, s.Message, s.ID)
			}
		}
	}
}
