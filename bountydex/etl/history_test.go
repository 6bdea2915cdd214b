package etl

import (
	"context"
	"testing"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndGapFill(t *testing.T) {
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()
	runDate := time.Date(2025, 8, 30, 14, 30, 0, 0, time.UTC)
	date := HistoryDate(runDate)

	fedID := cards.seed(&models.Card{ProductID: 1001, FoilType: "Normal", MarketPrice: 3.50})
	gapID := cards.seed(&models.Card{ProductID: 1002, FoilType: "Normal", MarketPrice: 7.25})

	records := []CardRecord{
		{ProductID: 1001, FoilType: "Normal", MarketPrice: 3.50},
	}

	result, err := NewHistoryAppender(cards, history).Append(context.Background(), records, runDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Appended)
	assert.Equal(t, 1, result.Filled)

	assert.Equal(t, 3.50, history.rows[fedID][date])
	// The gap row carries the catalog's current price.
	assert.Equal(t, 7.25, history.rows[gapID][date])
}

func TestHistoryAppendIsIdempotent(t *testing.T) {
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	id := cards.seed(&models.Card{ProductID: 1001, FoilType: "Normal", MarketPrice: 3.50})
	records := []CardRecord{{ProductID: 1001, FoilType: "Normal", MarketPrice: 3.50}}

	appender := NewHistoryAppender(cards, history)
	first, err := appender.Append(context.Background(), records, runDate)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Appended)

	// Re-running the same date writes nothing new and overwrites nothing.
	history.rows[id][HistoryDate(runDate)] = 99.0
	second, err := appender.Append(context.Background(), records, runDate)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Appended)
	assert.Equal(t, 0, second.Filled)
	assert.Equal(t, 99.0, history.rows[id][HistoryDate(runDate)])
}

func TestHistorySkipsRecordsMissingFromCatalog(t *testing.T) {
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	records := []CardRecord{{ProductID: 4242, FoilType: "Normal", MarketPrice: 1.00}}

	result, err := NewHistoryAppender(cards, history).Append(context.Background(), records, runDate)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Appended)
	assert.Empty(t, history.rows)
}

func TestHistoryDate(t *testing.T) {
	in := time.Date(2025, 8, 30, 23, 59, 59, 0, time.FixedZone("JST", 9*3600))
	got := HistoryDate(in)
	assert.Equal(t, time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC), got)
}
