package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Card is the current-state catalog row. Identity is the composite
// (product_id, foil_type) pair; the surrogate id exists for foreign keys and
// history rows. At most one row may exist per (product_id, foil_type), which
// is enforced with a unique constraint in the store.
//
// Nullable columns are pointers: a nil Life means "value unknown", which is
// distinct from a zero. LastUpdate always reflects the most recent run date,
// whether or not that run's feed contained this card.
type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	ProductID    int64     `bun:"product_id,notnull,unique:cards_product_foil_key" json:"product_id"`
	FoilType     string    `bun:"foil_type,notnull,default:'Normal',unique:cards_product_foil_key" json:"foil_type"`
	Name         string    `bun:"name,notnull" json:"name"`
	ImageURL     *string   `bun:"image_url" json:"image_url"`
	TCGPlayerURL *string   `bun:"tcgplayer_url" json:"tcgplayer_url"`
	MarketPrice  float64   `bun:"market_price,notnull,default:0" json:"market_price"`
	Rarity       *string   `bun:"rarity" json:"rarity"`
	CardCode     *string   `bun:"card_code" json:"card_code"`
	Description  *string   `bun:"description" json:"description"`
	Color        *string   `bun:"color" json:"color"`
	CardType     *string   `bun:"card_type" json:"card_type"`
	Life         *int64    `bun:"life" json:"life"`
	Power        *int64    `bun:"power" json:"power"`
	Subtype      *string   `bun:"subtype" json:"subtype"`
	Attribute    *string   `bun:"attribute" json:"attribute"`
	Cost         *int64    `bun:"cost" json:"cost"`
	Counter      *int64    `bun:"counter" json:"counter"`
	LastUpdate   time.Time `bun:"last_update,notnull" json:"last_update"`
}

// Key returns the composite identity of the card.
func (c *Card) Key() CardKey {
	return CardKey{ProductID: c.ProductID, FoilType: c.FoilType}
}

// CardKey is the catalog's unique key. FoilType distinguishes foil printings
// that share a product id with their normal-art counterpart.
type CardKey struct {
	ProductID int64
	FoilType  string
}
