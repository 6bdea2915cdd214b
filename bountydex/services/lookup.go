package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
)

// cardSearchItems implements fuzzy.Source over the catalog.
type cardSearchItems []*models.Card

func (items cardSearchItems) Len() int {
	return len(items)
}

func (items cardSearchItems) String(i int) string {
	return items[i].Name
}

type cachedCanonical struct {
	card      *models.Card
	timestamp time.Time
}

// LookupService resolves human-facing card codes to canonical catalog rows
// and serves fuzzy name search. A code like "OP01-001" maps to several rows
// (alternate arts, foil variants); canonical resolution picks one stable
// representative so clients asking "what is OP01-001 worth" get a consistent
// answer.
type LookupService struct {
	cards       repositories.CardRepository
	cache       *lru.Cache
	cacheExpiry time.Duration
}

func NewLookupService(cards repositories.CardRepository) *LookupService {
	cache, _ := lru.New(config.CacheSize)
	return &LookupService{
		cards:       cards,
		cache:       cache,
		cacheExpiry: config.CacheExpiration,
	}
}

// Canonical returns the representative row for a card code. Selection is
// deterministic: shortest name first (alternate arts carry suffixes like
// "(Alternate Art)"), then "Normal" foil over others, then lowest id.
func (s *LookupService) Canonical(ctx context.Context, cardCode string) (*models.Card, error) {
	if entry, ok := s.cache.Get(cardCode); ok {
		cached := entry.(cachedCanonical)
		if time.Since(cached.timestamp) < s.cacheExpiry {
			return cached.card, nil
		}
		s.cache.Remove(cardCode)
	}

	variants, err := s.cards.GetByCardCode(ctx, cardCode)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, &repositories.NotFoundError{Entity: "card", ID: cardCode}
	}

	card := pickCanonical(variants)
	s.cache.Add(cardCode, cachedCanonical{card: card, timestamp: time.Now()})
	return card, nil
}

// Variants returns every row behind a card code, canonical first.
func (s *LookupService) Variants(ctx context.Context, cardCode string) ([]*models.Card, error) {
	variants, err := s.cards.GetByCardCode(ctx, cardCode)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, &repositories.NotFoundError{Entity: "card", ID: cardCode}
	}

	canonical := pickCanonical(variants)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i] == canonical && variants[j] != canonical
	})
	return variants, nil
}

// SearchByName fuzzy-matches the query against card names and returns the
// best matches in score order.
func (s *LookupService) SearchByName(ctx context.Context, query string, limit int) ([]*models.Card, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > config.MaxSearchLimit {
		limit = config.MaxSearchLimit
	}

	catalog, err := s.cards.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := fuzzy.FindFrom(query, cardSearchItems(catalog))
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]*models.Card, 0, len(matches))
	for _, m := range matches {
		results = append(results, catalog[m.Index])
	}
	return results, nil
}

func pickCanonical(variants []*models.Card) *models.Card {
	best := variants[0]
	for _, candidate := range variants[1:] {
		if canonicalLess(candidate, best) {
			best = candidate
		}
	}
	return best
}

func canonicalLess(a, b *models.Card) bool {
	if len(a.Name) != len(b.Name) {
		return len(a.Name) < len(b.Name)
	}
	aNormal := a.FoilType == "Normal"
	bNormal := b.FoilType == "Normal"
	if aNormal != bNormal {
		return aNormal
	}
	return a.ID < b.ID
}
