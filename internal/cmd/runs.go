package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/output"
)

var (
	runsClass     string
	runsLeague    string
	runsCategory  string
	runsCompleted bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

func runsFilters(cmd *cobra.Command) core.RunFilters {
	var filters core.RunFilters
	if runsClass != "" {
		filters.Class = &runsClass
	}
	if runsLeague != "" {
		filters.League = &runsLeague
	}
	if runsCategory != "" {
		filters.Category = &runsCategory
	}
	if cmd.Flags().Changed("completed") {
		filters.IsCompleted = &runsCompleted
	}
	return filters
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		runs, err := db.ListRuns(cmd.Context(), runsFilters(cmd))
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, runs)
		}
		output.RunsTable(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a run with its splits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		run, err := db.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", id)
		}
		splits, err := db.SplitsByRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, map[string]any{"run": run, "splits": splits})
		}
		output.RunsTable(os.Stdout, []core.Run{*run})
		output.SplitsTable(os.Stdout, splits)
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate timings across runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		filters := runsFilters(cmd)
		stats, err := db.RunStats(cmd.Context(), filters)
		if err != nil {
			return err
		}
		splitStats, err := db.SplitStats(cmd.Context(), filters)
		if err != nil {
			return err
		}
		return output.WriteJSON(os.Stdout, map[string]any{"runs": stats, "splits": splitStats})
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a run as a portable JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		run, err := db.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", id)
		}
		splits, err := db.SplitsByRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		snapshots, err := db.SnapshotsByRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		return output.WriteJSON(os.Stdout, output.ExportRun(*run, splits, snapshots, time.Now()))
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run and its splits and snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		run, err := db.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", id)
		}
		if err := db.DeleteRun(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "deleted run %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsStatsCmd, runsExportCmd, runsDeleteCmd)

	runsCmd.PersistentFlags().StringVar(&runsClass, "class", "", "filter by class")
	runsCmd.PersistentFlags().StringVar(&runsLeague, "league", "", "filter by league")
	runsCmd.PersistentFlags().StringVar(&runsCategory, "category", "", "filter by category")
	runsCmd.PersistentFlags().BoolVar(&runsCompleted, "completed", false, "filter by completion state")
	runsListCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
	runsShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}
