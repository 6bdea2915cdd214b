package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Deck is a user-owned named card list built by the front end.
type Deck struct {
	bun.BaseModel `bun:"table:decks,alias:d"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Leader    string    `bun:"leader,notnull" json:"leader"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Cards []*DeckCard `bun:"rel:has-many,join:id=deck_id" json:"cards,omitempty"`
}

// DeckCard links a deck to a catalog card with a quantity. A deck may hold a
// given card only once; the foil variant is recorded separately so the entry
// survives alternate-art resolution on lookup.
type DeckCard struct {
	bun.BaseModel `bun:"table:deck_cards,alias:dc"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	DeckID   string `bun:"deck_id,notnull,unique:deck_cards_deck_card_key" json:"deck_id"`
	CardID   int64  `bun:"card_id,notnull,unique:deck_cards_deck_card_key" json:"card_id"`
	CardFoil string `bun:"card_foil,notnull,default:'Normal'" json:"card_foil"`
	Quantity int    `bun:"quantity,notnull,default:1" json:"quantity"`

	Card *Card `bun:"rel:belongs-to,join:card_id=id" json:"card,omitempty"`
}
