package etl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]string
		check   func(t *testing.T, rec CardRecord)
		wantErr bool
	}{
		{
			name: "full row",
			raw: map[string]string{
				"product_id":   "453436",
				"name":         "Monkey.D.Luffy",
				"foil_type":    "Foil",
				"market_price": "12.345",
				"card_code":    "OP01-003",
				"life":         "4",
				"power":        "5000",
				"cost":         "2",
				"counter":      "1000",
				"color":        "Red;Green",
				"subtype":      "Straw Hat Crew;Supernovas",
			},
			check: func(t *testing.T, rec CardRecord) {
				assert.Equal(t, int64(453436), rec.ProductID)
				assert.Equal(t, "Foil", rec.FoilType)
				assert.Equal(t, 12.35, rec.MarketPrice)
				require.NotNil(t, rec.Color)
				assert.Equal(t, "Red/Green", *rec.Color)
				require.NotNil(t, rec.Subtype)
				assert.Equal(t, "Straw Hat Crew/Supernovas", *rec.Subtype)
				require.NotNil(t, rec.Power)
				assert.Equal(t, int64(5000), *rec.Power)
			},
		},
		{
			name: "defaults applied for null sentinels",
			raw: map[string]string{
				"product_id":   "100",
				"name":         "nan",
				"foil_type":    "NaN",
				"market_price": "None",
			},
			check: func(t *testing.T, rec CardRecord) {
				assert.Equal(t, "", rec.Name)
				assert.Equal(t, "Normal", rec.FoilType)
				assert.Equal(t, 0.0, rec.MarketPrice)
			},
		},
		{
			name: "missing optional columns become nil",
			raw: map[string]string{
				"product_id": "100",
				"name":       "Nami",
			},
			check: func(t *testing.T, rec CardRecord) {
				assert.Nil(t, rec.Life)
				assert.Nil(t, rec.Power)
				assert.Nil(t, rec.Cost)
				assert.Nil(t, rec.Counter)
				assert.Nil(t, rec.Rarity)
			},
		},
		{
			name: "unparseable numeric without default becomes nil",
			raw: map[string]string{
				"product_id": "100",
				"life":       "four",
				"power":      "NaT",
			},
			check: func(t *testing.T, rec CardRecord) {
				assert.Nil(t, rec.Life)
				assert.Nil(t, rec.Power)
			},
		},
		{
			name: "float-encoded integers accepted",
			raw: map[string]string{
				"product_id": "453436.0",
				"power":      "5000.0",
			},
			check: func(t *testing.T, rec CardRecord) {
				assert.Equal(t, int64(453436), rec.ProductID)
				require.NotNil(t, rec.Power)
				assert.Equal(t, int64(5000), *rec.Power)
			},
		},
		{
			name:    "missing product_id fails the row",
			raw:     map[string]string{"name": "Zoro"},
			wantErr: true,
		},
		{
			name:    "null product_id fails the row",
			raw:     map[string]string{"product_id": "NULL", "name": "Zoro"},
			wantErr: true,
		},
		{
			name:    "unparseable product_id fails the row",
			raw:     map[string]string{"product_id": "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRow(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var rowErr *RowError
				assert.ErrorAs(t, err, &rowErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, rec)
		})
	}
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 12.35, roundPrice(12.345))
	assert.Equal(t, 0.1, roundPrice(0.10000000001))
	assert.Equal(t, 0.0, roundPrice(0))
}

func TestToModelStampsRunDate(t *testing.T) {
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	rec, err := ParseRow(map[string]string{"product_id": "1", "name": "Usopp"})
	require.NoError(t, err)

	card := rec.ToModel(runDate)
	assert.Equal(t, runDate, card.LastUpdate)
	assert.Equal(t, rec.Key(), card.Key())
}
