package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
)

// HistoryResult summarizes one history append.
type HistoryResult struct {
	Appended int
	Filled   int
}

// HistoryAppender writes the per-date price series. The series is append
// only: conflicting (card_id, history_date) rows are silently ignored, so an
// already-recorded price is never overwritten by a re-run.
type HistoryAppender struct {
	cards   repositories.CardRepository
	history repositories.CardHistoryRepository
}

func NewHistoryAppender(cards repositories.CardRepository, history repositories.CardHistoryRepository) *HistoryAppender {
	return &HistoryAppender{cards: cards, history: history}
}

// Append records the feed's prices for the run date, then fills the gap rows:
// every catalog card absent from the feed gets a history row carrying its
// current catalog price, so the series stays dense across feed outages.
func (h *HistoryAppender) Append(ctx context.Context, records []CardRecord, runDate time.Time) (HistoryResult, error) {
	date := HistoryDate(runDate)

	// Feed records resolve to card ids through the key index, which at this
	// point includes the rows the reconciler just inserted.
	existing, err := h.cards.ExistingKeys(ctx)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("failed to load existing keys: %w", err)
	}

	rows := make([]*models.CardHistory, 0, len(records))
	for _, rec := range records {
		id, ok := existing[rec.Key()]
		if !ok {
			// A feed row whose catalog insert failed has no id to record
			// against. Skip it; the gap filler below does not apply since
			// the card is not in the catalog either.
			slog.Warn("Feed record missing from catalog, skipping history row",
				slog.String("type", "etl"),
				slog.Int64("product_id", rec.ProductID),
				slog.String("foil_type", rec.FoilType))
			continue
		}
		rows = append(rows, &models.CardHistory{
			CardID:      id,
			HistoryDate: date,
			MarketPrice: rec.MarketPrice,
		})
	}

	result := HistoryResult{}
	if result.Appended, err = h.history.BulkAppend(ctx, rows); err != nil {
		return result, fmt.Errorf("failed to append history: %w", err)
	}

	if result.Filled, err = fillMissingCards(ctx, h.cards, h.history, date); err != nil {
		return result, err
	}

	slog.Info("History appended",
		slog.String("type", "etl"),
		slog.String("date", date.Format("2006-01-02")),
		slog.Int("appended", result.Appended),
		slog.Int("filled", result.Filled))
	return result, nil
}

// fillMissingCards writes a history row for every catalog card that still has
// none for the date, priced at the card's current catalog value. Both the
// daily append and the backfill run it per date so the series stays dense.
func fillMissingCards(ctx context.Context, cards repositories.CardRepository, history repositories.CardHistoryRepository, date time.Time) (int, error) {
	recorded, err := history.CardIDsOn(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to load recorded card ids: %w", err)
	}

	catalog, err := cards.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	var fillers []*models.CardHistory
	for _, card := range catalog {
		if _, ok := recorded[card.ID]; ok {
			continue
		}
		fillers = append(fillers, &models.CardHistory{
			CardID:      card.ID,
			HistoryDate: date,
			MarketPrice: card.MarketPrice,
		})
	}

	filled, err := history.BulkAppend(ctx, fillers)
	if err != nil {
		return 0, fmt.Errorf("failed to append filler rows: %w", err)
	}
	return filled, nil
}

// HistoryDate truncates a run timestamp to its calendar day in UTC, the
// granularity of the history series.
func HistoryDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
