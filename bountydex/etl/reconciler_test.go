package etl

import (
	"context"
	"testing"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw map[string]string) CardRecord {
	t.Helper()
	rec, err := ParseRow(raw)
	require.NoError(t, err)
	return rec
}

func TestReconcilePartitionsNewAndExisting(t *testing.T) {
	repo := newFakeCardRepo()
	oldDate := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	existingID := repo.seed(&models.Card{
		ProductID: 1001, FoilType: "Normal", Name: "Zoro", MarketPrice: 3.00, LastUpdate: oldDate,
	})
	strayID := repo.seed(&models.Card{
		ProductID: 9999, FoilType: "Normal", Name: "Unlisted", MarketPrice: 1.00, LastUpdate: oldDate,
	})

	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	records := []CardRecord{
		mustParse(t, map[string]string{"product_id": "1001", "name": "Roronoa Zoro", "market_price": "3.50"}),
		mustParse(t, map[string]string{"product_id": "1002", "name": "Nami", "market_price": "1.25"}),
	}

	result, err := NewReconciler(repo).Reconcile(context.Background(), records, runDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, int64(1), result.Touched)

	// Existing row keeps its id and picks up the new values.
	updated := repo.byID[existingID]
	assert.Equal(t, "Roronoa Zoro", updated.Name)
	assert.Equal(t, 3.50, updated.MarketPrice)
	assert.Equal(t, runDate, updated.LastUpdate)

	// The row absent from the feed was touched, not modified.
	stray := repo.byID[strayID]
	assert.Equal(t, "Unlisted", stray.Name)
	assert.Equal(t, runDate, stray.LastUpdate)

	// The new row got a fresh id under its key.
	newID, ok := repo.byKey[models.CardKey{ProductID: 1002, FoilType: "Normal"}]
	require.True(t, ok)
	assert.Equal(t, "Nami", repo.byID[newID].Name)
}

func TestReconcileFoilVariantsAreDistinct(t *testing.T) {
	repo := newFakeCardRepo()
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	records := []CardRecord{
		mustParse(t, map[string]string{"product_id": "1001", "name": "Zoro", "foil_type": "Normal"}),
		mustParse(t, map[string]string{"product_id": "1001", "name": "Zoro", "foil_type": "Foil"}),
	}

	result, err := NewReconciler(repo).Reconcile(context.Background(), records, runDate)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Len(t, repo.byKey, 2)
}

func TestDedupeLastWins(t *testing.T) {
	records := []CardRecord{
		{ProductID: 1, FoilType: "Normal", MarketPrice: 1.00},
		{ProductID: 2, FoilType: "Normal", MarketPrice: 5.00},
		{ProductID: 1, FoilType: "Normal", MarketPrice: 2.00},
	}

	out := dedupe(records)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].ProductID)
	assert.Equal(t, 2.00, out[0].MarketPrice)
	assert.Equal(t, int64(2), out[1].ProductID)
}
