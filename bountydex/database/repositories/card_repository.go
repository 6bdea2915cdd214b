package repositories

import (
	"context"
	"time"

	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/uptrace/bun"
)

// cardMutableColumns are the columns overwritten on every re-sighting of an
// existing (product_id, foil_type) pair.
var cardMutableColumns = []string{
	"name", "image_url", "tcgplayer_url", "market_price", "rarity",
	"card_code", "description", "color", "card_type", "life", "power",
	"subtype", "attribute", "cost", "counter", "last_update",
}

type CardRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	GetAll(ctx context.Context) ([]*models.Card, error)
	GetByCardCode(ctx context.Context, code string) ([]*models.Card, error)
	List(ctx context.Context, offset, limit int) ([]*models.Card, int, error)
	Create(ctx context.Context, card *models.Card) error
	Update(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, id int64) error

	// Reconciliation write plan. All bulk operations are chunked to
	// config.MaxBatchSize statements.
	ExistingKeys(ctx context.Context) (map[models.CardKey]int64, error)
	BulkInsert(ctx context.Context, cards []*models.Card) (int, error)
	BulkUpdate(ctx context.Context, cards []*models.Card) (int, error)
	TouchUnmatched(ctx context.Context, runDate time.Time) (int64, error)
}

type cardRepository struct {
	*BaseRepository
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	card := new(models.Card)
	err := r.DB().NewSelect().
		Model(card).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "card", id, err)
	}
	return card, nil
}

func (r *cardRepository) GetAll(ctx context.Context) ([]*models.Card, error) {
	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.DB().NewSelect().
		Model(&cards).
		Order("id ASC").
		Scan(ctx)
	return cards, r.HandleError("get_all", "card", err)
}

func (r *cardRepository) GetByCardCode(ctx context.Context, code string) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.DB().NewSelect().
		Model(&cards).
		Where("card_code = ?", code).
		Order("id ASC").
		Scan(ctx)
	return cards, r.HandleError("get_by_card_code", "card", err)
}

func (r *cardRepository) List(ctx context.Context, offset, limit int) ([]*models.Card, int, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	count, err := r.DB().NewSelect().
		Model(&cards).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		ScanAndCount(ctx)
	return cards, count, r.HandleError("list", "card", err)
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if card.LastUpdate.IsZero() {
		card.LastUpdate = time.Now()
	}
	_, err := r.DB().NewInsert().
		Model(card).
		Returning("id").
		Exec(ctx)
	return r.HandleError("create", "card", err)
}

func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.DB().NewUpdate().
		Model(card).
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "card", card.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "card", ID: card.ID}
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewDelete().
		Model((*models.Card)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return r.HandleErrorWithID("delete", "card", id, err)
}

// ExistingKeys loads the full (product_id, foil_type) index with the row ids
// behind each key. The catalog tops out in the tens of thousands of rows, so
// one scan per run is cheaper than per-row lookups during partitioning.
func (r *cardRepository) ExistingKeys(ctx context.Context) (map[models.CardKey]int64, error) {
	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	var rows []struct {
		ID        int64  `bun:"id"`
		ProductID int64  `bun:"product_id"`
		FoilType  string `bun:"foil_type"`
	}
	err := r.DB().NewSelect().
		Model((*models.Card)(nil)).
		Column("id", "product_id", "foil_type").
		Scan(ctx, &rows)
	if err != nil {
		return nil, r.HandleError("existing_keys", "card", err)
	}

	keys := make(map[models.CardKey]int64, len(rows))
	for _, row := range rows {
		keys[models.CardKey{ProductID: row.ProductID, FoilType: row.FoilType}] = row.ID
	}
	return keys, nil
}

func (r *cardRepository) BulkInsert(ctx context.Context, cards []*models.Card) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	total := 0
	err := chunk(cards, config.MaxBatchSize, func(batch []*models.Card) error {
		res, err := r.DB().NewInsert().
			Model(&batch).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
		return nil
	})
	return total, r.HandleError("bulk_insert", "card", err)
}

// BulkUpdate overwrites the mutable columns of each card by primary key.
func (r *cardRepository) BulkUpdate(ctx context.Context, cards []*models.Card) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	total := 0
	err := chunk(cards, config.MaxBatchSize, func(batch []*models.Card) error {
		res, err := r.DB().NewUpdate().
			Model(&batch).
			Column(cardMutableColumns...).
			Bulk().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
		return nil
	})
	return total, r.HandleError("bulk_update", "card", err)
}

// TouchUnmatched advances last_update on every row the current run did not
// write, so last_update is a reliable as-of marker for the whole catalog.
func (r *cardRepository) TouchUnmatched(ctx context.Context, runDate time.Time) (int64, error) {
	ctx, cancel := r.WithBatchTimeout(ctx)
	defer cancel()

	res, err := r.DB().NewUpdate().
		Model((*models.Card)(nil)).
		Set("last_update = ?", runDate).
		Where("last_update < ?", runDate).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("touch_unmatched", "card", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
