package etl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/68/Groups.csv", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "groupId,name,abbreviation\n3188,Romance Dawn,OP-01\n")
	})
	mux.HandleFunc("/68/3188/ProductsAndPrices.csv", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "productId,name,subTypeName,marketPrice\n"+
			"1001,Roronoa Zoro,Normal,3.50\n"+
			"1001,Roronoa Zoro,Foil,9.99\n")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestPipeline(server *httptest.Server, dir string, cards *fakeCardRepo, history *fakeHistoryRepo, sets *fakeSetRepo) *Pipeline {
	client := server.Client()
	return NewPipeline(
		NewSetSyncer(client, server.URL, 68, sets),
		NewSnapshotFetcher(client, server.URL, 68, dir),
		NewReconciler(cards),
		NewHistoryAppender(cards, history),
		nil,
	)
}

func TestPipelineFullRun(t *testing.T) {
	server := newTestUpstream(t)
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()
	sets := newFakeSetRepo()
	dir := t.TempDir()

	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	pipeline := newTestPipeline(server, dir, cards, history, sets)

	report, err := pipeline.Run(context.Background(), RunOptions{RunDate: runDate})
	require.NoError(t, err)

	assert.Equal(t, 1, report.SetsSynced)
	assert.Equal(t, 1, report.SnapshotsFetched)
	assert.Equal(t, 1, report.FilesParsed)
	assert.Equal(t, 2, report.FeedRows)
	assert.Equal(t, 2, report.CardsInserted)
	assert.Equal(t, 0, report.CardsUpdated)
	assert.Equal(t, 2, report.HistoryAppended)
	assert.Equal(t, 0, report.HistoryFilled)
	assert.Empty(t, report.Errors)

	// Both foil variants landed as separate catalog rows.
	assert.Len(t, cards.byKey, 2)

	// Second run for the same date is fully idempotent: snapshots are
	// reused, catalog rows update in place, history rows are no-ops.
	report2, err := pipeline.Run(context.Background(), RunOptions{RunDate: runDate})
	require.NoError(t, err)
	assert.Equal(t, 1, report2.SnapshotsSkipped)
	assert.Equal(t, 0, report2.CardsInserted)
	assert.Equal(t, 2, report2.CardsUpdated)
	assert.Equal(t, 0, report2.HistoryAppended)
	assert.Len(t, cards.byKey, 2)
}

func TestPipelineSkipFetch(t *testing.T) {
	server := newTestUpstream(t)
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()
	sets := newFakeSetRepo()
	dir := t.TempDir()

	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	snapDir := filepath.Join(dir, "2025-08-30")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "group_3188.csv"),
		[]byte("productId,name,marketPrice\n1001,Zoro,3.50\n"), 0o644))

	pipeline := newTestPipeline(server, dir, cards, history, sets)
	report, err := pipeline.Run(context.Background(), RunOptions{RunDate: runDate, SkipFetch: true})
	require.NoError(t, err)

	assert.Equal(t, 0, report.SetsSynced)
	assert.Equal(t, 0, report.SnapshotsFetched)
	assert.Equal(t, 1, report.FilesParsed)
	assert.Equal(t, 1, report.CardsInserted)
}

func TestPipelineStopsOnEmptyFeed(t *testing.T) {
	server := newTestUpstream(t)
	cards := newFakeCardRepo()
	cards.seed(&models.Card{ProductID: 1, FoilType: "Normal", LastUpdate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)})
	history := newFakeHistoryRepo()

	dir := t.TempDir()
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	snapDir := filepath.Join(dir, "2025-08-30")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))

	pipeline := newTestPipeline(server, dir, cards, history, newFakeSetRepo())
	_, err := pipeline.Run(context.Background(), RunOptions{RunDate: runDate, SkipFetch: true})
	require.Error(t, err)

	// Nothing was touched or filled.
	assert.Equal(t, int64(0), cards.touched)
	assert.Empty(t, history.rows)
}

func TestPipelineCountsBrokenFiles(t *testing.T) {
	server := newTestUpstream(t)
	cards := newFakeCardRepo()
	history := newFakeHistoryRepo()

	dir := t.TempDir()
	runDate := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	snapDir := filepath.Join(dir, "2025-08-30")
	require.NoError(t, os.MkdirAll(snapDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "group_1.csv"),
		[]byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(snapDir, "group_2.csv"),
		[]byte("productId,marketPrice\n1001,2.50\n"), 0o644))

	pipeline := newTestPipeline(server, dir, cards, history, newFakeSetRepo())
	report, err := pipeline.Run(context.Background(), RunOptions{RunDate: runDate, SkipFetch: true})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesFailed)
	assert.Equal(t, 1, report.FilesParsed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "group_1.csv")
}
