package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bountydex/bountydex/bountydex"
	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/bountydex/bountydex/bountydex/etl"
	"github.com/bountydex/bountydex/bountydex/logger"
	"github.com/bountydex/bountydex/bountydex/services"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		dateStr    = flag.String("date", "", "run date as YYYY-MM-DD (default today)")
		skipFetch  = flag.Bool("skip-fetch", false, "reprocess existing snapshots without fetching")
		backfill   = flag.String("backfill", "", "backfill history from an archive directory instead of running the daily pipeline")
		archive    = flag.Bool("archive", false, "upload the snapshot directory to Spaces after the run")
	)
	flag.Parse()

	cfg, err := bountydex.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	handler := logger.NewHandler("pipeline").WithLevel(cfg.Log.Level)
	slog.SetDefault(slog.New(handler))
	logger.LogSystem("Starting BountyDex pipeline", slog.String("config", *configPath))

	if err := run(cfg, *dateStr, *skipFetch, *backfill, *archive); err != nil {
		logger.LogError("Run failed", err)
		os.Exit(1)
	}
}

func run(cfg *bountydex.Config, dateStr string, skipFetch bool, backfillDir string, archive bool) error {
	runDate := time.Now().UTC()
	if dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", dateStr, err)
		}
		runDate = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig(cfg.DB))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	cards := repositories.NewCardRepository(db.BunDB())
	history := repositories.NewCardHistoryRepository(db.BunDB())
	sets := repositories.NewCardSetRepository(db.BunDB())

	if backfillDir != "" {
		backfiller := etl.NewBackfiller(cards, history)
		result, err := backfiller.Run(ctx, backfillDir)
		if err != nil {
			return err
		}
		slog.Info("Backfill complete",
			slog.String("type", "etl"),
			slog.Int("dates", result.Dates),
			slog.Int("appended", result.Appended),
			slog.Int("filled", result.Filled),
			slog.Int("files_failed", result.FilesFailed))
		return nil
	}

	client := &http.Client{Timeout: config.RequestTimeout}

	var archiver etl.SnapshotArchiver
	if archive && cfg.Spaces.Enabled {
		svc, err := services.NewArchiveService(
			cfg.Spaces.Key, cfg.Spaces.Secret, cfg.Spaces.Region,
			cfg.Spaces.Bucket, cfg.Spaces.Root)
		if err != nil {
			return fmt.Errorf("failed to set up archive service: %w", err)
		}
		archiver = svc
	}

	pipeline := etl.NewPipeline(
		etl.NewSetSyncer(client, cfg.Source.BaseURL, cfg.Source.CategoryID, sets),
		etl.NewSnapshotFetcher(client, cfg.Source.BaseURL, cfg.Source.CategoryID, cfg.Prices.Dir),
		etl.NewReconciler(cards),
		etl.NewHistoryAppender(cards, history),
		archiver,
	)

	report, err := pipeline.Run(ctx, etl.RunOptions{
		RunDate:   runDate,
		SkipFetch: skipFetch,
		Archive:   archive,
	})
	if err != nil {
		return err
	}

	for _, msg := range report.Errors {
		slog.Warn("Run finished with error",
			slog.String("type", "etl"),
			slog.String("error", msg))
	}
	return nil
}
