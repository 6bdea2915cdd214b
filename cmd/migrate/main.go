package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bountydex/bountydex/bountydex"
	"github.com/bountydex/bountydex/bountydex/database"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/bountydex/bountydex/bountydex/logger"
	"github.com/bountydex/bountydex/bountydex/migration"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		dataDir    = flag.String("data", "legacy", "directory holding decks.bson")
		mongoURI   = flag.String("mongo-uri", "", "migrate from a live Mongo instead of the dump file")
		mongoDB    = flag.String("mongo-db", "bountydex", "Mongo database name")
	)
	flag.Parse()

	slog.SetDefault(slog.New(logger.NewHandler("migrate")))

	if err := run(*configPath, *dataDir, *mongoURI, *mongoDB); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath, dataDir, mongoURI, mongoDB string) error {
	cfg, err := bountydex.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	cards := repositories.NewCardRepository(db.BunDB())
	migrator := migration.NewMigrator(db.BunDB(), cards, dataDir)

	if mongoURI != "" {
		if err := migrator.UseMongo(ctx, mongoURI, mongoDB); err != nil {
			return err
		}
	}

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	stats := migrator.Stats()
	slog.Info("Migration complete",
		slog.Int("decks_read", stats.DecksRead),
		slog.Int("decks_migrated", stats.DecksMigrated),
		slog.Int("entries_written", stats.EntriesWritten),
		slog.Int("cards_missing", stats.CardsMissing),
		slog.Duration("elapsed", time.Since(stats.StartTime)))
	return nil
}
