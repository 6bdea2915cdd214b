package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CardHistory is the append-only price time series: one row per card per
// calendar run date. The (card_id, history_date) pair is unique in the store
// and inserts are issued with ON CONFLICT DO NOTHING, so re-running a date is
// a no-op rather than an error. Rows are never updated or deleted.
type CardHistory struct {
	bun.BaseModel `bun:"table:card_history,alias:ch"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	CardID      int64     `bun:"card_id,notnull,unique:card_history_card_date_key" json:"card_id"`
	HistoryDate time.Time `bun:"history_date,notnull,type:date,unique:card_history_card_date_key" json:"history_date"`
	MarketPrice float64   `bun:"market_price,notnull" json:"market_price"`
}
