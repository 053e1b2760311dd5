package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/config"
	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/core/engine"
	"github.com/kburke8/poe-watcher/internal/logwatch"
	"github.com/kburke8/poe-watcher/internal/server"
)

var (
	serveHost  string
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API",
	Long: `Start the local HTTP server exposing recorded runs, the
character-window API and a live event stream at /api/events.

With --watch the log watcher and run tracker run in the same process
and tracker events are streamed to connected clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync() // nolint:errcheck // stdout sync errors are benign

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		api := newAPIClient(cfg, log)
		hub := server.NewHub()
		srv := server.New(cfg.Server, db, api, hub, cfg.API.AccountName, log)

		if serveWatch {
			if err := startWatcherForServe(ctx, cfg, db, api, hub, log); err != nil {
				return err
			}
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// startWatcherForServe wires the log watcher and tracker into the
// serve process, publishing tracker events to the SSE hub.
func startWatcherForServe(ctx context.Context, cfg *config.Config, db engine.RunStore, api engine.SnapshotClient, hub *server.Hub, log *zap.Logger) error {
	logPath := cfg.Watcher.LogPath
	if logPath == "" {
		logPath = logwatch.DetectLogPath()
	}
	if logPath == "" {
		return fmt.Errorf("could not locate Client.txt: set watcher.log_path")
	}

	preset, err := engine.ResolvePreset(cfg.Run.BreakpointPreset, cfg.Run.BreakpointFile)
	if err != nil {
		return err
	}

	var snapshotClient engine.SnapshotClient
	if cfg.API.SnapshotOnSplit {
		snapshotClient = api
	}

	tracker := engine.New(db, snapshotClient, engine.Options{
		AccountName:     cfg.API.AccountName,
		League:          cfg.Run.League,
		Category:        cfg.Run.Category,
		Preset:          preset,
		SnapshotOnSplit: cfg.API.SnapshotOnSplit,
	}, log)

	watcher := logwatch.New(logPath, log)
	tracker.SetNotify(func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventRunStarted:
			watcher.SetFastPolling(true)
		case engine.EventRunCompleted:
			watcher.SetFastPolling(false)
		}
		hub.Publish(ev)
	})

	if err := watcher.Start(func(ev core.LogEvent) {
		if err := tracker.HandleEvent(ctx, ev); err != nil {
			log.Error("tracker error", zap.String("event", string(ev.Type)), zap.Error(err))
		}
	}); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		watcher.Stop()
	}()

	log.Info("watching game log", zap.String("path", logPath), zap.String("preset", preset.Name))
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "server host")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 7555, "server port")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also tail the game log and stream tracker events")
}
