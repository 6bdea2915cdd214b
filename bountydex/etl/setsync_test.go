package etl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bountydex/bountydex/bountydex/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupsCSV = `groupId,name,abbreviation,isSupplemental,publishedOn
3188,Romance Dawn,OP-01,False,2022-12-02
4077,Paramount War,OP-02,False,2023-03-10
23766,Premium Booster,PRB-01 The Best,False,2024-10-25
`

func TestParseSetList(t *testing.T) {
	sets, err := parseSetList(strings.NewReader(groupsCSV))
	require.NoError(t, err)
	require.Len(t, sets, 3)

	assert.Equal(t, int64(3188), sets[0].ID)
	assert.Equal(t, "OP-01", sets[0].Name)
	assert.Equal(t, "Romance Dawn", sets[0].Description)

	// Spaces in abbreviations are normalized to underscores.
	assert.Equal(t, "PRB-01_The_Best", sets[2].Name)
}

func TestParseSetListMissingColumn(t *testing.T) {
	_, err := parseSetList(strings.NewReader("groupId,name\n1,Foo\n"))
	assert.Error(t, err)
}

func TestSyncUpsertsOnCountChange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/68/Groups.csv", r.URL.Path)
		fmt.Fprint(w, groupsCSV)
	}))
	defer server.Close()

	repo := newFakeSetRepo()
	syncer := NewSetSyncer(server.Client(), server.URL, 68, repo)

	ids, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Len(t, repo.sets, 3)
}

func TestSyncSkipsUpsertWhenCountMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, groupsCSV)
	}))
	defer server.Close()

	repo := newFakeSetRepo()
	repo.sets[3188] = &models.CardSet{ID: 3188, Name: "stale"}
	repo.sets[4077] = &models.CardSet{ID: 4077}
	repo.sets[23766] = &models.CardSet{ID: 23766}

	syncer := NewSetSyncer(server.Client(), server.URL, 68, repo)
	ids, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	// Count matched, so the stale name was deliberately left alone.
	assert.Equal(t, "stale", repo.sets[3188].Name)
}

func TestSyncFailsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	syncer := NewSetSyncer(server.Client(), server.URL, 68, newFakeSetRepo())
	_, err := syncer.Sync(context.Background())
	assert.Error(t, err)
}
