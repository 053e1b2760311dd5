package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kburke8/poe-watcher/internal/output"
	"github.com/kburke8/poe-watcher/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if jsonOutput {
			return output.WriteJSON(os.Stdout, info)
		}
		fmt.Fprintf(os.Stdout, "poewatcher %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}
