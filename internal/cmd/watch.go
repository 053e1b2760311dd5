package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/core/engine"
	"github.com/kburke8/poe-watcher/internal/logwatch"
)

var (
	watchLogPath string
	watchLeague  string
	watchPreset  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail the game log and record runs",
	Long: `Tail Client.txt and track leveling runs. A run starts on the first
zone entered while no run is active and completes at the final
breakpoint of the selected preset. Splits, personal bests and gold
splits are recorded as you play.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if watchLogPath != "" {
			cfg.Watcher.LogPath = watchLogPath
		}
		if watchLeague != "" {
			cfg.Run.League = watchLeague
		}
		if watchPreset != "" {
			cfg.Run.BreakpointPreset = watchPreset
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync() // nolint:errcheck // stdout sync errors are benign

		logPath := cfg.Watcher.LogPath
		if logPath == "" {
			logPath = logwatch.DetectLogPath()
		}
		if logPath == "" {
			return fmt.Errorf("could not locate Client.txt: set watcher.log_path or pass --log")
		}

		preset, err := engine.ResolvePreset(cfg.Run.BreakpointPreset, cfg.Run.BreakpointFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		var snapshotClient engine.SnapshotClient
		if cfg.API.SnapshotOnSplit {
			snapshotClient = newAPIClient(cfg, log)
		}

		tracker := engine.New(db, snapshotClient, engine.Options{
			AccountName:     cfg.API.AccountName,
			League:          cfg.Run.League,
			Category:        cfg.Run.Category,
			Preset:          preset,
			SnapshotOnSplit: cfg.API.SnapshotOnSplit,
		}, log)

		watcher := logwatch.New(logPath, log)

		// Poll faster while a run is in progress.
		tracker.SetNotify(func(ev engine.Event) {
			switch ev.Kind {
			case engine.EventRunStarted:
				watcher.SetFastPolling(true)
			case engine.EventRunCompleted:
				watcher.SetFastPolling(false)
			}
		})

		// The watcher delivers events from its own goroutine; the tracker
		// is single-threaded, so this callback is its only caller.
		if err := watcher.Start(func(ev core.LogEvent) {
			if err := tracker.HandleEvent(ctx, ev); err != nil {
				log.Error("tracker error", zap.String("event", string(ev.Type)), zap.Error(err))
			}
		}); err != nil {
			return err
		}
		defer watcher.Stop()

		log.Info("watching game log",
			zap.String("path", logPath),
			zap.String("league", cfg.Run.League),
			zap.String("preset", preset.Name))

		<-ctx.Done()
		log.Info("shutting down")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchLogPath, "log", "", "path to Client.txt (default: auto-detect)")
	watchCmd.Flags().StringVar(&watchLeague, "league", "", "league name for new runs")
	watchCmd.Flags().StringVar(&watchPreset, "preset", "", "breakpoint preset for new runs")
}
