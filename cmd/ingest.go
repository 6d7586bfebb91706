package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/app"
	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/log"
)

var ingestReindex bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index course documents from a directory",
	Long: `Parse and index every course document in the directory.

Without an argument the configured docs directory is used. Courses whose
title is already indexed are skipped unless --reindex is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		return runIngest(dir)
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReindex, "reindex", false, "re-index courses that are already indexed")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(dir string) error {
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if dir == "" {
		dir = cfg.DocsPath
	}
	if dir == "" {
		return fmt.Errorf("no directory given and docs_path is not configured")
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	result, err := a.Ingestor.IngestDirectory(ctx, dir, ingestReindex)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("Indexed %d courses (%d chunks), skipped %d, failed %d in %s\n",
		result.CoursesAdded, result.ChunksIndexed,
		result.CoursesSkipped, result.FilesFailed,
		result.Duration.Round(time.Millisecond))
	return nil
}
