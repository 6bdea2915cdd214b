package repositories

import (
	"context"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeckRepository interface {
	Create(ctx context.Context, deck *models.Deck) error
	GetByID(ctx context.Context, id string) (*models.Deck, error)
	GetByUser(ctx context.Context, userID string) ([]*models.Deck, error)
	Update(ctx context.Context, deck *models.Deck) error
	Delete(ctx context.Context, id string) error

	// AddCard upserts a deck entry: adding a card already in the deck
	// replaces its foil variant and quantity rather than duplicating the
	// (deck, card) pair.
	AddCard(ctx context.Context, entry *models.DeckCard) error
	RemoveCard(ctx context.Context, deckID string, cardID int64) error
}

type deckRepository struct {
	*BaseRepository
}

func NewDeckRepository(db *bun.DB) DeckRepository {
	return &deckRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	deck.CreatedAt = time.Now()

	_, err := r.DB().NewInsert().
		Model(deck).
		Exec(ctx)
	return r.HandleError("create", "deck", err)
}

func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	deck := new(models.Deck)
	err := r.DB().NewSelect().
		Model(deck).
		Relation("Cards").
		Relation("Cards.Card").
		Where("d.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "deck", id, err)
	}
	return deck, nil
}

func (r *deckRepository) GetByUser(ctx context.Context, userID string) ([]*models.Deck, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var decks []*models.Deck
	err := r.DB().NewSelect().
		Model(&decks).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return decks, r.HandleError("get_by_user", "deck", err)
}

func (r *deckRepository) Update(ctx context.Context, deck *models.Deck) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.DB().NewUpdate().
		Model(deck).
		Column("name", "leader").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update", "deck", deck.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "deck", ID: deck.ID}
	}
	return nil
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	return r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.DeckCard)(nil)).
			Where("deck_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*models.Deck)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

func (r *deckRepository) AddCard(ctx context.Context, entry *models.DeckCard) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewInsert().
		Model(entry).
		On("CONFLICT (deck_id, card_id) DO UPDATE").
		Set("card_foil = EXCLUDED.card_foil").
		Set("quantity = EXCLUDED.quantity").
		Exec(ctx)
	return r.HandleError("add_card", "deck_card", err)
}

func (r *deckRepository) RemoveCard(ctx context.Context, deckID string, cardID int64) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewDelete().
		Model((*models.DeckCard)(nil)).
		Where("deck_id = ? AND card_id = ?", deckID, cardID).
		Exec(ctx)
	return r.HandleError("remove_card", "deck_card", err)
}
