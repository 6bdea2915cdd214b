package services

import (
	"context"
	"testing"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCardRepo struct {
	repositories.CardRepository
	cards       []*models.Card
	codeQueries int
}

func (s *stubCardRepo) GetAll(_ context.Context) ([]*models.Card, error) {
	return s.cards, nil
}

func (s *stubCardRepo) GetByCardCode(_ context.Context, code string) ([]*models.Card, error) {
	s.codeQueries++
	var out []*models.Card
	for _, card := range s.cards {
		if card.CardCode != nil && *card.CardCode == code {
			out = append(out, card)
		}
	}
	return out, nil
}

func code(s string) *string { return &s }

func catalogFixture() []*models.Card {
	return []*models.Card{
		{ID: 1, Name: "Monkey.D.Luffy (Alternate Art)", FoilType: "Normal", CardCode: code("OP01-003")},
		{ID: 2, Name: "Monkey.D.Luffy", FoilType: "Foil", CardCode: code("OP01-003")},
		{ID: 3, Name: "Monkey.D.Luffy", FoilType: "Normal", CardCode: code("OP01-003")},
		{ID: 4, Name: "Roronoa Zoro", FoilType: "Normal", CardCode: code("OP01-025")},
	}
}

func TestCanonicalPrefersShortestNameThenNormalFoil(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)

	card, err := svc.Canonical(context.Background(), "OP01-003")
	require.NoError(t, err)
	assert.Equal(t, int64(3), card.ID)
}

func TestCanonicalCaches(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)

	_, err := svc.Canonical(context.Background(), "OP01-003")
	require.NoError(t, err)
	_, err = svc.Canonical(context.Background(), "OP01-003")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.codeQueries)
}

func TestCanonicalCacheExpires(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)
	svc.cacheExpiry = time.Duration(0)

	_, err := svc.Canonical(context.Background(), "OP01-003")
	require.NoError(t, err)
	_, err = svc.Canonical(context.Background(), "OP01-003")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.codeQueries)
}

func TestCanonicalUnknownCode(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)

	_, err := svc.Canonical(context.Background(), "ZZ99-999")
	require.Error(t, err)
	assert.True(t, repositories.IsNotFound(err))
}

func TestVariantsPutsCanonicalFirst(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)

	variants, err := svc.Variants(context.Background(), "OP01-003")
	require.NoError(t, err)
	require.Len(t, variants, 3)
	assert.Equal(t, int64(3), variants[0].ID)
}

func TestSearchByName(t *testing.T) {
	repo := &stubCardRepo{cards: catalogFixture()}
	svc := NewLookupService(repo)

	results, err := svc.SearchByName(context.Background(), "zoro", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Roronoa Zoro", results[0].Name)

	empty, err := svc.SearchByName(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestPickCanonicalTiesBreakOnID(t *testing.T) {
	cards := []*models.Card{
		{ID: 7, Name: "Nami", FoilType: "Normal"},
		{ID: 5, Name: "Nami", FoilType: "Normal"},
	}
	assert.Equal(t, int64(5), pickCanonical(cards).ID)
}
