package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name      string
		items     int
		size      int
		wantSizes []int
	}{
		{name: "empty", items: 0, size: 3, wantSizes: nil},
		{name: "single partial batch", items: 2, size: 3, wantSizes: []int{2}},
		{name: "exact multiple", items: 6, size: 3, wantSizes: []int{3, 3}},
		{name: "trailing partial", items: 7, size: 3, wantSizes: []int{3, 3, 1}},
		{name: "batch size one", items: 3, size: 1, wantSizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			var sizes []int
			seen := 0
			err := chunk(items, tt.size, func(batch []int) error {
				sizes = append(sizes, len(batch))
				for _, v := range batch {
					assert.Equal(t, seen, v)
					seen++
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSizes, sizes)
		})
	}
}

func TestChunkStopsOnError(t *testing.T) {
	calls := 0
	err := chunk([]int{1, 2, 3, 4}, 2, func(batch []int) error {
		calls++
		return fmt.Errorf("batch %d failed", calls)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHandleError(t *testing.T) {
	br := &BaseRepository{}

	assert.NoError(t, br.HandleError("get", "card", nil))

	err := br.HandleError("get", "card", sql.ErrNoRows)
	assert.True(t, IsNotFound(err))

	err = br.HandleError("get", "card", errors.New("connection reset"))
	assert.False(t, IsNotFound(err))
	var repoErr *RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "get", repoErr.Operation)
	assert.Equal(t, "card", repoErr.Entity)
}

func TestHandleErrorWithID(t *testing.T) {
	br := &BaseRepository{}

	err := br.HandleErrorWithID("get", "deck", "abc-123", sql.ErrNoRows)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "abc-123", nfe.ID)
	assert.Contains(t, err.Error(), "deck")
}

func TestRepositoryErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RepositoryError{Operation: "update", Entity: "card", Err: cause}
	assert.ErrorIs(t, err, cause)
}
