package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"smelt/internal/config"
	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/storage"
	"smelt/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize smelt for this workspace",
	Long: `Create the .smelt state directory with a default configuration and
filter file, and report the detected project metadata.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspaceRoot()
	if err != nil {
		return err
	}

	project, err := workspace.ReadProject(root)
	if err != nil {
		return err
	}

	cfgPath, err := config.WriteDefault(root)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})
	filterStore, err := filters.Load(filepath.Join(root, storage.StateDirName), logger)
	if err != nil {
		return err
	}
	if err := filterStore.Save(); err != nil {
		return err
	}

	fmt.Printf("Initialized smelt for %s\n", project.Name)
	fmt.Printf("  workspace: %s\n", root)
	fmt.Printf("  config:    %s\n", cfgPath)
	fmt.Printf("  filters:   %s\n", filepath.Join(root, storage.StateDirName, filters.FileName))
	return nil
}
