package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kburke8/poe-watcher/internal/output"
)

var fetchAccount string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch character data from pathofexile.com",
	Long: `Fetch character data from the pathofexile.com character-window API.
The account's profile must be public. Responses are cached briefly and
requests are rate limited to stay within the service's limits.`,
}

var fetchCharactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "List the account's characters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		account, err := requireAccount(fetchAccount, cfg)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync() // nolint:errcheck // stdout sync errors are benign

		characters, err := newAPIClient(cfg, log).Characters(cmd.Context(), account)
		if err != nil {
			return err
		}

		if jsonOutput {
			return output.WriteJSON(os.Stdout, characters)
		}
		output.CharactersTable(os.Stdout, characters)
		return nil
	},
}

var fetchItemsCmd = &cobra.Command{
	Use:   "items <character>",
	Short: "Fetch a character's equipped items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		account, err := requireAccount(fetchAccount, cfg)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync() // nolint:errcheck // stdout sync errors are benign

		items, err := newAPIClient(cfg, log).Items(cmd.Context(), account, args[0])
		if err != nil {
			return err
		}
		return output.WriteJSON(os.Stdout, items)
	},
}

var fetchPassivesCmd = &cobra.Command{
	Use:   "passives <character>",
	Short: "Fetch a character's allocated passive skills",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		account, err := requireAccount(fetchAccount, cfg)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync() // nolint:errcheck // stdout sync errors are benign

		passives, err := newAPIClient(cfg, log).PassiveSkills(cmd.Context(), account, args[0])
		if err != nil {
			return err
		}
		return output.WriteJSON(os.Stdout, passives)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchCharactersCmd, fetchItemsCmd, fetchPassivesCmd)

	fetchCmd.PersistentFlags().StringVar(&fetchAccount, "account", "", "account name (default: api.account_name from config)")
	fetchCharactersCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
}
