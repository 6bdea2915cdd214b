package repositories

import (
	"context"
	"time"

	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/uptrace/bun"
)

type CardSetRepository interface {
	Count(ctx context.Context) (int, error)
	IDs(ctx context.Context) ([]int64, error)
	GetAll(ctx context.Context) ([]*models.CardSet, error)
	GetByID(ctx context.Context, id int64) (*models.CardSet, error)
	Upsert(ctx context.Context, sets []*models.CardSet) (int, error)
}

type cardSetRepository struct {
	*BaseRepository
}

func NewCardSetRepository(db *bun.DB) CardSetRepository {
	return &cardSetRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cardSetRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	count, err := r.DB().NewSelect().
		Model((*models.CardSet)(nil)).
		Count(ctx)
	return count, r.HandleError("count", "card_set", err)
}

func (r *cardSetRepository) IDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var ids []int64
	err := r.DB().NewSelect().
		Model((*models.CardSet)(nil)).
		Column("id").
		Order("id ASC").
		Scan(ctx, &ids)
	return ids, r.HandleError("ids", "card_set", err)
}

func (r *cardSetRepository) GetAll(ctx context.Context) ([]*models.CardSet, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sets []*models.CardSet
	err := r.DB().NewSelect().
		Model(&sets).
		Order("id ASC").
		Scan(ctx)
	return sets, r.HandleError("get_all", "card_set", err)
}

func (r *cardSetRepository) GetByID(ctx context.Context, id int64) (*models.CardSet, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	set := new(models.CardSet)
	err := r.DB().NewSelect().
		Model(set).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "card_set", id, err)
	}
	return set, nil
}

// Upsert writes every given set by upstream id. Existing rows are renamed in
// place; nothing is ever deleted.
func (r *cardSetRepository) Upsert(ctx context.Context, sets []*models.CardSet) (int, error) {
	if len(sets) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	now := time.Now()
	total := 0
	err := chunk(sets, config.MaxBatchSize, func(batch []*models.CardSet) error {
		for _, s := range batch {
			s.UpdatedAt = now
		}
		res, err := r.DB().NewInsert().
			Model(&batch).
			On("CONFLICT (id) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("description = EXCLUDED.description").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
		return nil
	})
	return total, r.HandleError("upsert", "card_set", err)
}
