package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"igdash/pkg/config"
	"igdash/pkg/ui"
)

var (
	serveAddr    string
	serveStorage string
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP API",
	Long: `Run the HTTP API used by the dashboard.

Endpoints:
  POST /api/scrape   {"userId": "<handle>"}  fetch and normalize posts
  POST /api/ingest   {"userId": "<handle>"}  fetch, normalize and store posts
  POST /api/profile  {"userId": "<handle>"}  profile summary
  GET  /api/data?username=<handle>         stored posts
  GET  /api/names                          stored usernames
  GET  /healthz`,
	Example: `  igdash serve
  igdash serve --addr :9000 --storage postgres`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&serveStorage, "storage", "", "storage driver (postgres, file, none)")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, log := mustSetup(config.Overrides{
		Addr:          serveAddr,
		StorageDriver: serveStorage,
	})
	log.WithField("version", version).Info("igdash starting")

	app := fx.New(appOptions(cfg, log))

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.WithError(err).Error("failed to start application")
		ui.PrintError("Failed to start", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Listening on", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("received shutdown signal")
	case <-app.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.WithError(err).Error("failed to stop application cleanly")
		os.Exit(1)
	}
	log.Info("igdash stopped")
}
