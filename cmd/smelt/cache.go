package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"smelt/internal/smells"
)

var (
	cacheClearAll  bool
	cacheExportFmt string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the smell result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts and sizes",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [file...]",
	Short: "Clear cached results for files, or everything with --all",
	RunE:  runCacheClear,
}

var cachePathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List every path with cache bookkeeping",
	RunE:  runCachePaths,
}

var cacheExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump all cached findings",
	RunE:  runCacheExport,
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "Clear the entire cache")
	cacheExportCmd.Flags().StringVar(&cacheExportFmt, "format", "json", "Output format (json, yaml)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathsCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	stats, err := rt.results.CacheStats()
	if err != nil {
		return err
	}

	fmt.Printf("Entries:        %d (%d with findings, %d clean)\n", stats.Entries, stats.WithFindings, stats.Clean)
	fmt.Printf("Known paths:    %d\n", stats.KnownPaths)
	fmt.Printf("Payload bytes:  %d\n", stats.PayloadBytes)
	fmt.Printf("Orphaned:       %d\n", stats.Orphaned)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if cacheClearAll {
		if err := rt.results.ClearAll(); err != nil {
			return err
		}
		rt.tracker.ResetAll()
		fmt.Println("Cache cleared.")
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("specify files to clear, or --all")
	}

	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return err
		}

		// Prefer the content-hash clear; fall back to bookkeeping when the
		// file is already gone from disk
		if _, statErr := os.Stat(path); statErr == nil {
			if err := rt.results.ClearForPath(path); err != nil {
				return err
			}
		} else {
			if _, err := rt.results.ClearByKnownPath(path); err != nil {
				return err
			}
		}
		rt.tracker.RemoveFile(path)
		fmt.Printf("Cleared %s\n", path)
	}
	return nil
}

func runCachePaths(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	paths, err := rt.results.AllKnownPaths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// cacheExportEntry pairs a path with its cached findings
type cacheExportEntry struct {
	Path   string         `json:"path" yaml:"path"`
	Hash   string         `json:"hash" yaml:"hash"`
	Smells []smells.Smell `json:"smells" yaml:"smells"`
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	assocs, err := rt.results.Associations()
	if err != nil {
		return err
	}

	entries := make([]cacheExportEntry, 0, len(assocs))
	for _, a := range assocs {
		findings, ok, err := rt.results.GetByHash(a.Hash)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		entries = append(entries, cacheExportEntry{
			Path:   a.Path,
			Hash:   a.Hash,
			Smells: findings,
		})
	}

	if cacheExportFmt == "yaml" {
		return yaml.NewEncoder(os.Stdout).Encode(entries)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
