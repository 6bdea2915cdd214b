package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CardSet mirrors one upstream group. The primary key is the upstream group
// id, not a local sequence, so upserts from the set syncer are stable across
// runs. Rows are never deleted.
type CardSet struct {
	bun.BaseModel `bun:"table:card_sets,alias:cs"`

	ID          int64     `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
