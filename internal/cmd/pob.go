package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kburke8/poe-watcher/internal/core/engine"
	"github.com/kburke8/poe-watcher/internal/pob"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

var (
	pobAccount string
	pobUpload  bool
)

var pobCmd = &cobra.Command{
	Use:   "pob",
	Short: "Build Path of Building import codes",
}

// buildPoBCode fetches live character data and encodes it.
func buildPoBCode(cmd *cobra.Command, character string) (string, *poeapi.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", nil, err
	}
	account, err := requireAccount(pobAccount, cfg)
	if err != nil {
		return "", nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return "", nil, err
	}
	defer log.Sync() // nolint:errcheck // stdout sync errors are benign

	client := newAPIClient(cfg, log)
	items, err := client.Items(cmd.Context(), account, character)
	if err != nil {
		return "", nil, err
	}
	passives, err := client.PassiveSkills(cmd.Context(), account, character)
	if err != nil {
		return "", nil, err
	}

	ascendancy := engine.AscendancyName(items.Character.Class, items.Character.AscendancyClass)
	code, err := pob.Encode(pob.FromSnapshot(items, passives, ascendancy))
	if err != nil {
		return "", nil, err
	}
	return code, client, nil
}

var pobCodeCmd = &cobra.Command{
	Use:   "code <character>",
	Short: "Print a Path of Building import code for a character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, client, err := buildPoBCode(cmd, args[0])
		if err != nil {
			return err
		}

		if pobUpload {
			url, err := client.UploadPoB(cmd.Context(), code)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, url)
			return nil
		}
		fmt.Fprintln(os.Stdout, code)
		return nil
	},
}

var pobSnapshotCmd = &cobra.Command{
	Use:   "snapshot <snapshot-id>",
	Short: "Print the stored import code of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRunID(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
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

		snapshot, err := db.GetSnapshot(cmd.Context(), id)
		if err != nil {
			return err
		}
		if snapshot == nil {
			return fmt.Errorf("snapshot %d not found", id)
		}
		if snapshot.PobCode == nil || *snapshot.PobCode == "" {
			return fmt.Errorf("snapshot %d has no import code", id)
		}

		if pobUpload {
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync() // nolint:errcheck // stdout sync errors are benign

			url, err := newAPIClient(cfg, log).UploadPoB(cmd.Context(), *snapshot.PobCode)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, url)
			return nil
		}
		fmt.Fprintln(os.Stdout, *snapshot.PobCode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pobCmd)
	pobCmd.AddCommand(pobCodeCmd, pobSnapshotCmd)

	pobCmd.PersistentFlags().StringVar(&pobAccount, "account", "", "account name (default: api.account_name from config)")
	pobCmd.PersistentFlags().BoolVar(&pobUpload, "upload", false, "upload the code to pobb.in and print the share URL")
}
