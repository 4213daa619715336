package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smelt/internal/analyzer"
	"smelt/internal/detect"
	"smelt/internal/reconcile"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and keep the smell cache fresh",
	Long: `Watch the workspace for file changes and reconcile the smell cache.

On startup the persisted cache is reconciled against the filesystem. While
running, edits invalidate stale entries and mark files outdated, deletions
clean up bookkeeping, and (with detection.relintOnSave enabled) saves
trigger immediate re-detection. Analyzer availability is polled in the
background. Press Ctrl-C to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if !rt.cfg.Watcher.Enabled {
		rt.logger.Info("Watcher is disabled in configuration", nil)
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	summary, err := reconcile.Bootstrap(rt.results, rt.tracker, rt.root, rt.logger)
	if err != nil {
		return err
	}
	fmt.Printf("Bootstrap: %d valid (%d with findings, %d clean), %d removed, %d skipped\n",
		summary.Valid, summary.WithFindings, summary.Clean, summary.Removed, summary.Skipped)

	poller := analyzer.NewHealthPoller(rt.client,
		time.Duration(rt.cfg.Server.HealthIntervalMs)*time.Millisecond, nil, rt.logger)
	go poller.Run(ctx)

	// While watching, reachability comes from the poller's cached state
	// instead of a synchronous probe per cache miss
	watchDetector := detect.NewDetector(rt.results, rt.tracker,
		analyzer.NewPolledClient(rt.client, poller), rt.filters, rt.logger)

	relint := func(ctx context.Context, path string) error {
		_, err := watchDetector.Detect(ctx, path)
		return err
	}

	engineCfg := reconcile.EngineConfig{
		Extensions:   rt.cfg.Watcher.Extensions,
		RelintOnSave: rt.cfg.Detection.RelintOnSave,
		Watch: reconcile.WatchConfig{
			DebounceMs:     rt.cfg.Watcher.DebounceMs,
			IgnorePatterns: rt.cfg.Watcher.IgnorePatterns,
		},
	}

	engine := reconcile.NewEngine(rt.root, engineCfg, rt.results, rt.tracker, relint, rt.logger)
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer engine.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		rt.logger.Info("Shutting down", nil)
	case <-ctx.Done():
	}
	return nil
}
