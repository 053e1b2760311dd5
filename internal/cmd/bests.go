package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kburke8/poe-watcher/internal/output"
)

var bestsCmd = &cobra.Command{
	Use:   "bests",
	Short: "Show personal bests and gold splits",
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

		bests, err := db.ListPersonalBests(cmd.Context())
		if err != nil {
			return err
		}
		golds, err := db.ListGoldSplits(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, map[string]any{"personalBests": bests, "goldSplits": golds})
		}
		output.BestsTable(os.Stdout, bests)
		output.GoldSplitsTable(os.Stdout, golds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bestsCmd)
	bestsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
}
