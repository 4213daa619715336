package main

import (
	"os"
	"path/filepath"
	"time"

	"smelt/internal/analyzer"
	"smelt/internal/config"
	"smelt/internal/detect"
	"smelt/internal/errors"
	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/status"
	"smelt/internal/storage"
	"smelt/internal/workspace"
)

// runtime is the composition root: one instance per invocation, every
// component constructor-injected and shared by reference.
type runtime struct {
	root     string
	cfg      *config.Config
	logger   *logging.Logger
	db       *storage.DB
	results  *storage.Results
	tracker  *status.Tracker
	filters  *filters.Store
	client   *analyzer.HTTPClient
	detector *detect.Detector
}

// newRuntime resolves the workspace and wires all core components
func newRuntime() (*runtime, error) {
	root, err := resolveWorkspaceRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})

	db, err := storage.Open(root, logger)
	if err != nil {
		return nil, err
	}

	results, err := storage.NewResults(db, logger)
	if err != nil {
		db.Close() //nolint:errcheck // wiring failed
		return nil, err
	}

	filterStore, err := filters.Load(filepath.Join(root, storage.StateDirName), logger)
	if err != nil {
		db.Close() //nolint:errcheck // wiring failed
		return nil, err
	}

	tracker := status.NewTracker(logger)
	client := analyzer.NewHTTPClient(cfg.Server.URL, time.Duration(cfg.Server.TimeoutMs)*time.Millisecond, logger)
	detector := detect.NewDetector(results, tracker, client, filterStore, logger)

	return &runtime{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		db:       db,
		results:  results,
		tracker:  tracker,
		filters:  filterStore,
		client:   client,
		detector: detector,
	}, nil
}

// close releases the runtime's resources
func (r *runtime) close() {
	r.results.Close()
	if err := r.db.Close(); err != nil {
		r.logger.Warn("Failed to close database", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// resolveWorkspaceRoot honors --workspace, falling back to marker detection
// from the current directory
func resolveWorkspaceRoot() (string, error) {
	if workspaceFlag != "" {
		abs, err := filepath.Abs(workspaceFlag)
		if err != nil {
			return "", errors.Wrap(errors.WorkspaceNotConfigured, "invalid workspace path", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", errors.Wrap(errors.WorkspaceNotConfigured, "workspace root does not exist", err)
		}
		if !info.IsDir() {
			return "", errors.Newf(errors.WorkspaceNotConfigured, "workspace root %s is not a directory", abs)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return workspace.FindRoot(cwd)
}
