package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/api"
	"github.com/lectern/lectern/internal/app"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

On startup any course documents in the configured docs directory are
ingested; courses already indexed are skipped. The server then answers
questions on POST /api/query.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting lectern", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if cfg.DocsPath != "" {
		result, err := a.Ingestor.IngestDirectory(ctx, cfg.DocsPath, false)
		if err != nil {
			// The server is still useful with whatever is already
			// indexed, so startup ingestion failures are not fatal.
			logger.Warn("startup ingestion failed", "path", cfg.DocsPath, "error", err)
		} else {
			logger.Info("startup ingestion done",
				"added", result.CoursesAdded,
				"skipped", result.CoursesSkipped)
		}
	}

	srv := api.NewServer(a.System, a.Pool, logger)
	return srv.Run(ctx, cfg.Addr)
}
