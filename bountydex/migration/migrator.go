package migration

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stats tracks one migration run.
type Stats struct {
	DecksRead      int
	DecksMigrated  int
	EntriesWritten int
	CardsMissing   int
	StartTime      time.Time
}

// Migrator imports legacy deck data into Postgres. Decks come either from a
// raw mongodump .bson file or from a live Mongo connection; card references
// are legacy printed codes and resolve against the current catalog.
type Migrator struct {
	pgDB      *bun.DB
	cards     repositories.CardRepository
	decksPath string
	stats     Stats

	// Optional direct Mongo access
	mongoDB  *mongo.Database
	collName string
}

func NewMigrator(pgDB *bun.DB, cards repositories.CardRepository, dataDir string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		cards:     cards,
		decksPath: filepath.Join(dataDir, "decks.bson"),
		collName:  "decks",
		stats:     Stats{StartTime: time.Now()},
	}
}

// UseMongo switches the source from the dump file to a live connection.
func (m *Migrator) UseMongo(ctx context.Context, uri, database string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}
	m.mongoDB = client.Database(database)
	return nil
}

func (m *Migrator) Stats() Stats {
	return m.stats
}

// Run loads the legacy decks and writes them through the deck tables. A deck
// referencing only unknown cards is still created, just empty; individual
// unknown codes are logged and counted.
func (m *Migrator) Run(ctx context.Context) error {
	var decks []MongoDeck
	var err error

	if m.mongoDB != nil {
		decks, err = m.loadFromMongo(ctx)
	} else {
		decks, err = m.loadFromDump()
	}
	if err != nil {
		return err
	}
	m.stats.DecksRead = len(decks)
	slog.Info("Loaded legacy decks", "count", len(decks))

	codeIndex, err := m.buildCodeIndex(ctx)
	if err != nil {
		return err
	}

	return m.pgDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, legacy := range decks {
			if err := m.migrateDeck(ctx, tx, legacy, codeIndex); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadFromDump streams deck documents out of a raw mongodump file. Each BSON
// document starts with a little-endian int32 length that includes itself.
func (m *Migrator) loadFromDump() ([]MongoDeck, error) {
	file, err := os.Open(m.decksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", m.decksPath, err)
	}
	defer file.Close()

	var decks []MongoDeck
	reader := bufio.NewReader(file)
	for {
		lengthBytes := make([]byte, 4)
		_, err := io.ReadFull(reader, lengthBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document length: %w", err)
		}

		length := int32(binary.LittleEndian.Uint32(lengthBytes))
		if length <= 4 {
			return nil, fmt.Errorf("invalid document length: %d", length)
		}

		docBytes := make([]byte, length-4)
		if _, err := io.ReadFull(reader, docBytes); err != nil {
			return nil, fmt.Errorf("failed to read document bytes: %w", err)
		}

		var deck MongoDeck
		if err := bson.Unmarshal(append(lengthBytes, docBytes...), &deck); err != nil {
			return nil, fmt.Errorf("failed to decode deck BSON: %w", err)
		}
		decks = append(decks, deck)
	}
	return decks, nil
}

func (m *Migrator) loadFromMongo(ctx context.Context) ([]MongoDeck, error) {
	cursor, err := m.mongoDB.Collection(m.collName).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query decks: %w", err)
	}
	defer cursor.Close(ctx)

	var decks []MongoDeck
	if err := cursor.All(ctx, &decks); err != nil {
		return nil, fmt.Errorf("failed to decode decks: %w", err)
	}
	return decks, nil
}

// buildCodeIndex maps (card_code, foil_type) to catalog ids for resolving
// legacy references.
func (m *Migrator) buildCodeIndex(ctx context.Context) (map[string]map[string]int64, error) {
	catalog, err := m.cards.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	index := make(map[string]map[string]int64)
	for _, card := range catalog {
		if card.CardCode == nil || *card.CardCode == "" {
			continue
		}
		byFoil := index[*card.CardCode]
		if byFoil == nil {
			byFoil = make(map[string]int64)
			index[*card.CardCode] = byFoil
		}
		byFoil[card.FoilType] = card.ID
	}
	return index, nil
}

func (m *Migrator) migrateDeck(ctx context.Context, tx bun.Tx, legacy MongoDeck, codeIndex map[string]map[string]int64) error {
	deck := &models.Deck{
		ID:        uuid.NewString(),
		Name:      legacy.Name,
		Leader:    legacy.Leader,
		UserID:    legacy.UserID,
		CreatedAt: legacy.Created.Time(),
	}
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = time.Now()
	}

	if _, err := tx.NewInsert().Model(deck).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert deck %q: %w", legacy.Name, err)
	}
	m.stats.DecksMigrated++

	// Collapse duplicate codes, summing quantities; the legacy tracker
	// allowed split stacks of the same card.
	type resolved struct {
		cardID   int64
		foil     string
		quantity int
	}
	merged := make(map[int64]*resolved)
	for _, entry := range legacy.CardList {
		code, foil := splitLegacyCode(entry.Code)
		cardID, ok := resolveCode(codeIndex, code, foil)
		if !ok {
			m.stats.CardsMissing++
			slog.Warn("Legacy deck references unknown card",
				"deck", legacy.Name,
				"code", entry.Code)
			continue
		}
		if existing, ok := merged[cardID]; ok {
			existing.quantity += int(entry.Quantity)
			continue
		}
		merged[cardID] = &resolved{cardID: cardID, foil: foil, quantity: int(entry.Quantity)}
	}

	for _, entry := range merged {
		deckCard := &models.DeckCard{
			DeckID:   deck.ID,
			CardID:   entry.cardID,
			CardFoil: entry.foil,
			Quantity: entry.quantity,
		}
		if _, err := tx.NewInsert().Model(deckCard).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert deck card: %w", err)
		}
		m.stats.EntriesWritten++
	}
	return nil
}

// splitLegacyCode separates the legacy foil marker from a printed code:
// "OP01-001f" means the foil printing of OP01-001.
func splitLegacyCode(code string) (string, string) {
	code = strings.TrimSpace(code)
	if strings.HasSuffix(code, "f") && len(code) > 1 {
		return code[:len(code)-1], "Foil"
	}
	return code, "Normal"
}

// resolveCode finds the catalog id for a code and foil. When the requested
// foil does not exist the fallback is deterministic: the "Normal" printing if
// stored, otherwise the variant with the lowest id.
func resolveCode(index map[string]map[string]int64, code, foil string) (int64, bool) {
	byFoil, ok := index[code]
	if !ok {
		return 0, false
	}
	if id, ok := byFoil[foil]; ok {
		return id, true
	}
	if id, ok := byFoil["Normal"]; ok {
		return id, true
	}
	var best int64
	found := false
	for _, id := range byFoil {
		if !found || id < best {
			best = id
			found = true
		}
	}
	return best, found
}
