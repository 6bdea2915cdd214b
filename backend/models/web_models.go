package models

import (
	"time"

	dbmodels "github.com/bountydex/bountydex/bountydex/database/models"
)

// CardCreateRequest is the payload for creating a catalog card by hand.
// Hand-created rows carry negative product ids by convention so they can
// never collide with vendor-assigned ones.
type CardCreateRequest struct {
	ProductID    int64    `json:"product_id"`
	FoilType     string   `json:"foil_type"`
	Name         string   `json:"name"`
	ImageURL     *string  `json:"image_url"`
	TCGPlayerURL *string  `json:"tcgplayer_url"`
	MarketPrice  float64  `json:"market_price"`
	Rarity       *string  `json:"rarity"`
	CardCode     *string  `json:"card_code"`
	Description  *string  `json:"description"`
	Color        *string  `json:"color"`
	CardType     *string  `json:"card_type"`
	Life         *int64   `json:"life"`
	Power        *int64   `json:"power"`
	Subtype      *string  `json:"subtype"`
	Attribute    *string  `json:"attribute"`
	Cost         *int64   `json:"cost"`
	Counter      *int64   `json:"counter"`
}

// ToCard converts the request to a catalog model.
func (r *CardCreateRequest) ToCard() *dbmodels.Card {
	foil := r.FoilType
	if foil == "" {
		foil = "Normal"
	}
	return &dbmodels.Card{
		ProductID:    r.ProductID,
		FoilType:     foil,
		Name:         r.Name,
		ImageURL:     r.ImageURL,
		TCGPlayerURL: r.TCGPlayerURL,
		MarketPrice:  r.MarketPrice,
		Rarity:       r.Rarity,
		CardCode:     r.CardCode,
		Description:  r.Description,
		Color:        r.Color,
		CardType:     r.CardType,
		Life:         r.Life,
		Power:        r.Power,
		Subtype:      r.Subtype,
		Attribute:    r.Attribute,
		Cost:         r.Cost,
		Counter:      r.Counter,
	}
}

// DeckCreateRequest is the payload for creating a deck.
type DeckCreateRequest struct {
	Name   string `json:"name"`
	Leader string `json:"leader"`
	UserID string `json:"user_id"`
}

// DeckUpdateRequest is the payload for renaming a deck or changing its leader.
type DeckUpdateRequest struct {
	Name   string `json:"name"`
	Leader string `json:"leader"`
}

// DeckCardRequest is the payload for adding a card to a deck.
type DeckCardRequest struct {
	CardID   int64  `json:"card_id"`
	CardFoil string `json:"card_foil"`
	Quantity int    `json:"quantity"`
}

// HistoryPoint is one point in a card's price series.
type HistoryPoint struct {
	Date        string  `json:"date"`
	MarketPrice float64 `json:"market_price"`
}

// HistoryResponse is the price series for one card.
type HistoryResponse struct {
	CardID int64          `json:"card_id"`
	Points []HistoryPoint `json:"points"`
}

// NewHistoryPoint formats a history row for the API.
func NewHistoryPoint(date time.Time, price float64) HistoryPoint {
	return HistoryPoint{
		Date:        date.Format("2006-01-02"),
		MarketPrice: price,
	}
}
