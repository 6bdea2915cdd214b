package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
)

// BackfillResult summarizes one backfill run.
type BackfillResult struct {
	Dates       int
	Appended    int
	Filled      int
	FilesFailed int
}

// Backfiller loads historical price archives into card_history. The archive
// layout is one directory per day, named YYYY-MM-DD, each holding per-set
// price dumps in either the raw JSON API shape or the snapshot CSV shape.
//
// Backfill never writes to the cards table: archive rows whose key is not in
// the current catalog are dropped, since a history row without a card to
// attach to is meaningless. Catalog cards absent from a date's archive get a
// filler row at their current catalog price, the same densification the daily
// append applies.
type Backfiller struct {
	cards   repositories.CardRepository
	history repositories.CardHistoryRepository
}

func NewBackfiller(cards repositories.CardRepository, history repositories.CardHistoryRepository) *Backfiller {
	return &Backfiller{cards: cards, history: history}
}

// snapshotDocument is the raw JSON API dump shape found in older archives.
type snapshotDocument struct {
	Results []struct {
		ProductID   int64   `json:"productId"`
		SubTypeName string  `json:"subTypeName"`
		MarketPrice float64 `json:"marketPrice"`
	} `json:"results"`
}

// Run walks the archive root and appends one history batch per dated
// directory, oldest first. Unreadable files are logged and skipped; an
// unreadable root or a repository failure stops the run.
func (b *Backfiller) Run(ctx context.Context, root string) (BackfillResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("failed to read archive root: %w", err)
	}

	var dates []time.Time
	dirs := make(map[time.Time]string)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", entry.Name(), time.UTC)
		if err != nil {
			slog.Warn("Skipping non-date directory",
				slog.String("type", "etl"),
				slog.String("name", entry.Name()))
			continue
		}
		dates = append(dates, date)
		dirs[date] = filepath.Join(root, entry.Name())
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	existing, err := b.cards.ExistingKeys(ctx)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("failed to load existing keys: %w", err)
	}

	result := BackfillResult{}
	for _, date := range dates {
		appended, filled, failed, err := b.backfillDate(ctx, dirs[date], date, existing)
		if err != nil {
			return result, err
		}
		result.Dates++
		result.Appended += appended
		result.Filled += filled
		result.FilesFailed += failed

		slog.Info("Backfilled date",
			slog.String("type", "etl"),
			slog.String("date", date.Format("2006-01-02")),
			slog.Int("appended", appended),
			slog.Int("filled", filled))
	}

	return result, nil
}

func (b *Backfiller) backfillDate(ctx context.Context, dir string, date time.Time, existing map[models.CardKey]int64) (appended, filled, failed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	byCard := make(map[int64]float64)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := b.loadFile(path, existing, byCard); err != nil {
			slog.Error("Failed to load archive file",
				slog.String("type", "etl"),
				slog.String("path", path),
				slog.Any("error", err))
			failed++
		}
	}

	rows := make([]*models.CardHistory, 0, len(byCard))
	for cardID, price := range byCard {
		rows = append(rows, &models.CardHistory{
			CardID:      cardID,
			HistoryDate: date,
			MarketPrice: price,
		})
	}

	appended, err = b.history.BulkAppend(ctx, rows)
	if err != nil {
		return 0, 0, failed, fmt.Errorf("failed to append history for %s: %w", date.Format("2006-01-02"), err)
	}

	filled, err = fillMissingCards(ctx, b.cards, b.history, date)
	if err != nil {
		return appended, 0, failed, fmt.Errorf("failed to fill %s: %w", date.Format("2006-01-02"), err)
	}
	return appended, filled, failed, nil
}

// loadFile parses one archive file into the per-card price map. Later files
// for the same date overwrite earlier prices for the same card.
func (b *Backfiller) loadFile(path string, existing map[models.CardKey]int64, byCard map[int64]float64) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return b.loadJSON(path, existing, byCard)
	case ".csv":
		return b.loadCSV(path, existing, byCard)
	default:
		slog.Debug("Ignoring archive file with unknown extension",
			slog.String("type", "etl"),
			slog.String("path", path))
		return nil
	}
}

func (b *Backfiller) loadJSON(path string, existing map[models.CardKey]int64, byCard map[int64]float64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	for _, entry := range doc.Results {
		foil := entry.SubTypeName
		if foil == "" {
			foil = DefaultFoilType
		}
		key := models.CardKey{ProductID: entry.ProductID, FoilType: foil}
		id, ok := existing[key]
		if !ok {
			continue
		}
		byCard[id] = roundPrice(entry.MarketPrice)
	}
	return nil
}

func (b *Backfiller) loadCSV(path string, existing map[models.CardKey]int64, byCard map[int64]float64) error {
	result, err := NormalizeFile(path)
	if err != nil {
		return err
	}

	for _, rec := range result.Records {
		id, ok := existing[rec.Key()]
		if !ok {
			continue
		}
		byCard[id] = rec.MarketPrice
	}
	return nil
}
