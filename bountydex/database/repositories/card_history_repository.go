package repositories

import (
	"context"
	"time"

	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/uptrace/bun"
)

type CardHistoryRepository interface {
	// BulkAppend inserts history rows with ON CONFLICT DO NOTHING against
	// the (card_id, history_date) uniqueness constraint. Re-running a date
	// neither errors nor duplicates. Returns the number of rows actually
	// written.
	BulkAppend(ctx context.Context, rows []*models.CardHistory) (int, error)

	// CardIDsOn returns the set of card ids that already have a history
	// row for the given date.
	CardIDsOn(ctx context.Context, date time.Time) (map[int64]struct{}, error)

	GetByCard(ctx context.Context, cardID int64) ([]*models.CardHistory, error)
}

type cardHistoryRepository struct {
	*BaseRepository
}

func NewCardHistoryRepository(db *bun.DB) CardHistoryRepository {
	return &cardHistoryRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cardHistoryRepository) BulkAppend(ctx context.Context, rows []*models.CardHistory) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	total := 0
	err := chunk(rows, config.MaxBatchSize, func(batch []*models.CardHistory) error {
		res, err := r.DB().NewInsert().
			Model(&batch).
			On("CONFLICT (card_id, history_date) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
		return nil
	})
	return total, r.HandleError("bulk_append", "card_history", err)
}

func (r *cardHistoryRepository) CardIDsOn(ctx context.Context, date time.Time) (map[int64]struct{}, error) {
	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.DB().NewSelect().
		Model((*models.CardHistory)(nil)).
		Column("card_id").
		Where("history_date = ?", date).
		Scan(ctx, &ids)
	if err != nil {
		return nil, r.HandleError("card_ids_on", "card_history", err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *cardHistoryRepository) GetByCard(ctx context.Context, cardID int64) ([]*models.CardHistory, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []*models.CardHistory
	err := r.DB().NewSelect().
		Model(&rows).
		Where("card_id = ?", cardID).
		Order("history_date ASC").
		Scan(ctx)
	return rows, r.HandleError("get_by_card", "card_history", err)
}
