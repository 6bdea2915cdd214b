package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
)

// ReconcileResult summarizes one catalog reconciliation.
type ReconcileResult struct {
	Inserted int
	Updated  int
	Touched  int64
	// Records holds the deduplicated feed, needed downstream by the
	// history appender.
	Records []CardRecord
}

// Reconciler merges a normalized feed into the cards table. Identity is the
// (product_id, foil_type) pair, never the surrogate id.
type Reconciler struct {
	cards repositories.CardRepository
}

func NewReconciler(cards repositories.CardRepository) *Reconciler {
	return &Reconciler{cards: cards}
}

// Reconcile partitions the feed against the stored key index, bulk-inserts
// the new rows, bulk-updates the re-sighted ones, and touches everything the
// feed did not mention so last_update is uniform across the catalog after
// every run.
func (r *Reconciler) Reconcile(ctx context.Context, records []CardRecord, runDate time.Time) (ReconcileResult, error) {
	records = dedupe(records)

	existing, err := r.cards.ExistingKeys(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to load existing keys: %w", err)
	}

	var inserts, updates []*models.Card
	for _, rec := range records {
		card := rec.ToModel(runDate)
		if id, ok := existing[rec.Key()]; ok {
			card.ID = id
			updates = append(updates, card)
		} else {
			inserts = append(inserts, card)
		}
	}

	slog.Info("Reconciling catalog",
		slog.String("type", "etl"),
		slog.Int("feed_rows", len(records)),
		slog.Int("new", len(inserts)),
		slog.Int("existing", len(updates)))

	result := ReconcileResult{Records: records}

	if result.Inserted, err = r.cards.BulkInsert(ctx, inserts); err != nil {
		return result, fmt.Errorf("failed to insert new cards: %w", err)
	}
	if result.Updated, err = r.cards.BulkUpdate(ctx, updates); err != nil {
		return result, fmt.Errorf("failed to update existing cards: %w", err)
	}
	if result.Touched, err = r.cards.TouchUnmatched(ctx, runDate); err != nil {
		return result, fmt.Errorf("failed to touch unmatched cards: %w", err)
	}

	return result, nil
}

// dedupe collapses duplicate (product_id, foil_type) keys, keeping the last
// occurrence. Duplicates appear when a product is listed in more than one
// snapshot file; the later file wins.
func dedupe(records []CardRecord) []CardRecord {
	seen := make(map[models.CardKey]int, len(records))
	out := records[:0]
	for _, rec := range records {
		key := rec.Key()
		if i, ok := seen[key]; ok {
			out[i] = rec
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}
	return out
}
