package etl

import (
	"context"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
)

// fakeCardRepo is an in-memory CardRepository for pipeline tests. Keys map
// to ids assigned in insert order.
type fakeCardRepo struct {
	nextID  int64
	byID    map[int64]*models.Card
	byKey   map[models.CardKey]int64
	touched int64
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{
		nextID: 1,
		byID:   make(map[int64]*models.Card),
		byKey:  make(map[models.CardKey]int64),
	}
}

func (f *fakeCardRepo) seed(card *models.Card) int64 {
	card.ID = f.nextID
	f.nextID++
	f.byID[card.ID] = card
	f.byKey[card.Key()] = card.ID
	return card.ID
}

func (f *fakeCardRepo) GetByID(_ context.Context, id int64) (*models.Card, error) {
	return f.byID[id], nil
}

func (f *fakeCardRepo) GetAll(_ context.Context) ([]*models.Card, error) {
	cards := make([]*models.Card, 0, len(f.byID))
	for id := int64(1); id < f.nextID; id++ {
		if card, ok := f.byID[id]; ok {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func (f *fakeCardRepo) GetByCardCode(_ context.Context, code string) ([]*models.Card, error) {
	var cards []*models.Card
	for id := int64(1); id < f.nextID; id++ {
		card, ok := f.byID[id]
		if ok && card.CardCode != nil && *card.CardCode == code {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

func (f *fakeCardRepo) List(_ context.Context, offset, limit int) ([]*models.Card, int, error) {
	all, _ := f.GetAll(context.Background())
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f *fakeCardRepo) Create(_ context.Context, card *models.Card) error {
	f.seed(card)
	return nil
}

func (f *fakeCardRepo) Update(_ context.Context, card *models.Card) error {
	f.byID[card.ID] = card
	return nil
}

func (f *fakeCardRepo) Delete(_ context.Context, id int64) error {
	if card, ok := f.byID[id]; ok {
		delete(f.byKey, card.Key())
		delete(f.byID, id)
	}
	return nil
}

func (f *fakeCardRepo) ExistingKeys(_ context.Context) (map[models.CardKey]int64, error) {
	keys := make(map[models.CardKey]int64, len(f.byKey))
	for k, v := range f.byKey {
		keys[k] = v
	}
	return keys, nil
}

func (f *fakeCardRepo) BulkInsert(_ context.Context, cards []*models.Card) (int, error) {
	for _, card := range cards {
		f.seed(card)
	}
	return len(cards), nil
}

func (f *fakeCardRepo) BulkUpdate(_ context.Context, cards []*models.Card) (int, error) {
	for _, card := range cards {
		f.byID[card.ID] = card
	}
	return len(cards), nil
}

func (f *fakeCardRepo) TouchUnmatched(_ context.Context, runDate time.Time) (int64, error) {
	var n int64
	for _, card := range f.byID {
		if card.LastUpdate.Before(runDate) {
			card.LastUpdate = runDate
			n++
		}
	}
	f.touched = n
	return n, nil
}

// fakeHistoryRepo stores rows keyed by (card id, date).
type fakeHistoryRepo struct {
	rows map[int64]map[time.Time]float64
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{rows: make(map[int64]map[time.Time]float64)}
}

func (f *fakeHistoryRepo) BulkAppend(_ context.Context, rows []*models.CardHistory) (int, error) {
	written := 0
	for _, row := range rows {
		byDate := f.rows[row.CardID]
		if byDate == nil {
			byDate = make(map[time.Time]float64)
			f.rows[row.CardID] = byDate
		}
		if _, exists := byDate[row.HistoryDate]; exists {
			continue
		}
		byDate[row.HistoryDate] = row.MarketPrice
		written++
	}
	return written, nil
}

func (f *fakeHistoryRepo) CardIDsOn(_ context.Context, date time.Time) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for cardID, byDate := range f.rows {
		if _, ok := byDate[date]; ok {
			ids[cardID] = struct{}{}
		}
	}
	return ids, nil
}

func (f *fakeHistoryRepo) GetByCard(_ context.Context, cardID int64) ([]*models.CardHistory, error) {
	var rows []*models.CardHistory
	for date, price := range f.rows[cardID] {
		rows = append(rows, &models.CardHistory{CardID: cardID, HistoryDate: date, MarketPrice: price})
	}
	return rows, nil
}

// fakeSetRepo is an in-memory CardSetRepository.
type fakeSetRepo struct {
	sets map[int64]*models.CardSet
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: make(map[int64]*models.CardSet)}
}

func (f *fakeSetRepo) Count(_ context.Context) (int, error) {
	return len(f.sets), nil
}

func (f *fakeSetRepo) IDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id := range f.sets {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSetRepo) GetAll(_ context.Context) ([]*models.CardSet, error) {
	var sets []*models.CardSet
	for _, s := range f.sets {
		sets = append(sets, s)
	}
	return sets, nil
}

func (f *fakeSetRepo) GetByID(_ context.Context, id int64) (*models.CardSet, error) {
	return f.sets[id], nil
}

func (f *fakeSetRepo) Upsert(_ context.Context, sets []*models.CardSet) (int, error) {
	for _, s := range sets {
		f.sets[s.ID] = s
	}
	return len(sets), nil
}
