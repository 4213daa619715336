package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"smelt/internal/filters"
)

var filtersYes bool

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage which smell types are detected",
	Long: `Manage the enabled smell types and their options.

Cached results do not record the filter configuration that produced them,
so any change here invalidates the entire cache: every known file becomes
outdated and is re-analyzed on its next detection.`,
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List smell types and their state",
	RunE:  runFiltersList,
}

var filtersEnableCmd = &cobra.Command{
	Use:   "enable <smell>",
	Short: "Enable a smell type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			return s.SetEnabled(args[0], true)
		})
	},
}

var filtersDisableCmd = &cobra.Command{
	Use:   "disable <smell>",
	Short: "Disable a smell type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			return s.SetEnabled(args[0], false)
		})
	},
}

var filtersEnableAllCmd = &cobra.Command{
	Use:   "enable-all",
	Short: "Enable every smell type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			s.SetAll(true)
			return nil
		})
	},
}

var filtersDisableAllCmd = &cobra.Command{
	Use:   "disable-all",
	Short: "Disable every smell type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			s.SetAll(false)
			return nil
		})
	},
}

var filtersSetOptionCmd = &cobra.Command{
	Use:   "set-option <smell> <option> <value>",
	Short: "Set an option value for a smell type",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			return s.SetOption(args[0], args[1], parseOptionValue(args[2]))
		})
	},
}

var filtersResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default filter configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFilterChange(func(s *filters.Store) error {
			s.Reset()
			return nil
		})
	},
}

func init() {
	filtersCmd.PersistentFlags().BoolVarP(&filtersYes, "yes", "y", false,
		"Skip the cache invalidation confirmation")

	filtersCmd.AddCommand(filtersListCmd)
	filtersCmd.AddCommand(filtersEnableCmd)
	filtersCmd.AddCommand(filtersDisableCmd)
	filtersCmd.AddCommand(filtersEnableAllCmd)
	filtersCmd.AddCommand(filtersDisableAllCmd)
	filtersCmd.AddCommand(filtersSetOptionCmd)
	filtersCmd.AddCommand(filtersResetCmd)
	rootCmd.AddCommand(filtersCmd)
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	all := rt.filters.All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sel := all[k]
		state := "disabled"
		if sel.Enabled {
			state = "enabled"
		}
		fmt.Printf("  %-24s %s", k, state)
		if len(sel.Options) > 0 {
			opts := make([]string, 0, len(sel.Options))
			for name, value := range sel.Options {
				opts = append(opts, fmt.Sprintf("%s=%v", name, value))
			}
			sort.Strings(opts)
			fmt.Printf("  (%s)", strings.Join(opts, ", "))
		}
		fmt.Println()
	}
	return nil
}

// applyFilterChange runs a mutation through the invalidation coordinator
func applyFilterChange(change func(*filters.Store) error) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	coordinator := filters.NewCoordinator(rt.filters, rt.results, rt.tracker, confirmOnStdin, rt.logger)
	if filtersYes || rt.cfg.Detection.SuppressFilterPrompt {
		coordinator.Suppress()
	}

	paths, applied, err := coordinator.Apply(change)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Println("Aborted.")
		return nil
	}

	fmt.Printf("Filters updated; %d cached file(s) invalidated.\n", len(paths))
	return nil
}

func confirmOnStdin(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// parseOptionValue interprets option values as int, float, bool, or string.
// Numbers are tried first so "1" stays a threshold, not a bool.
func parseOptionValue(raw string) interface{} {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
