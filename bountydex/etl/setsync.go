package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bountydex/bountydex/bountydex/config"
	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
)

// SetSyncer keeps the card_sets reference table aligned with the upstream
// group listing before snapshots are fetched.
//
// The sync is gated on a row-count comparison, not a content diff: an add
// and a remove inside the same interval cancel out and go unnoticed. That
// matches the upstream behavior this pipeline tracks (sets are only ever
// added) and keeps the common no-change case to a single COUNT query.
type SetSyncer struct {
	client     *http.Client
	baseURL    string
	categoryID int
	sets       repositories.CardSetRepository
}

func NewSetSyncer(client *http.Client, baseURL string, categoryID int, sets repositories.CardSetRepository) *SetSyncer {
	return &SetSyncer{
		client:     client,
		baseURL:    baseURL,
		categoryID: categoryID,
		sets:       sets,
	}
}

// Sync fetches the upstream set list, upserts it when the stored count
// differs, and returns the authoritative set ids for the snapshot fetcher.
func (s *SetSyncer) Sync(ctx context.Context) ([]int64, error) {
	url := fmt.Sprintf("%s/%d/%s", s.baseURL, s.categoryID, config.SetListFileName)
	slog.Info("Downloading set list",
		slog.String("type", "etl"),
		slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build set list request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch set list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("set list request returned status %d", resp.StatusCode)
	}

	upstream, err := parseSetList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse set list: %w", err)
	}

	stored, err := s.sets.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored sets: %w", err)
	}

	if stored != len(upstream) {
		slog.Info("Set count changed, updating card_sets",
			slog.String("type", "etl"),
			slog.Int("stored", stored),
			slog.Int("upstream", len(upstream)))
		if _, err := s.sets.Upsert(ctx, upstream); err != nil {
			return nil, fmt.Errorf("failed to upsert sets: %w", err)
		}
	} else {
		slog.Info("Set list up to date",
			slog.String("type", "etl"),
			slog.Int("count", stored))
	}

	return s.sets.IDs(ctx)
}

// parseSetList reads the upstream Groups CSV. Only groupId, name and
// abbreviation matter; extra columns are ignored. The short abbreviation
// becomes the set name with spaces normalized to underscores, the full name
// becomes the description.
func parseSetList(r io.Reader) ([]*models.CardSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	for _, required := range []string{"groupId", "name", "abbreviation"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("set list missing column %q", required)
		}
	}

	var sets []*models.CardSet
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		field := func(name string) string {
			i := idx[name]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		id, err := strconv.ParseInt(field("groupId"), 10, 64)
		if err != nil {
			slog.Warn("Skipping set row with bad groupId",
				slog.String("type", "etl"),
				slog.String("value", field("groupId")))
			continue
		}

		sets = append(sets, &models.CardSet{
			ID:          id,
			Name:        strings.ReplaceAll(field("abbreviation"), " ", "_"),
			Description: field("name"),
		})
	}

	return sets, nil
}
