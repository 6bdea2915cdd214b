package etl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bountydex/bountydex/bountydex/config"
)

// FetchResult summarizes one fetch stage.
type FetchResult struct {
	Dir     string
	Fetched int
	Skipped int
	Failed  int
}

// SnapshotFetcher downloads per-set price CSVs into a per-date directory.
// A snapshot that already exists on disk is never re-downloaded, so
// re-running a date is idempotent and performs zero extra requests.
type SnapshotFetcher struct {
	client     *http.Client
	baseURL    string
	categoryID int
	pricesDir  string
}

func NewSnapshotFetcher(client *http.Client, baseURL string, categoryID int, pricesDir string) *SnapshotFetcher {
	return &SnapshotFetcher{
		client:     client,
		baseURL:    baseURL,
		categoryID: categoryID,
		pricesDir:  pricesDir,
	}
}

// SnapshotDir returns the directory holding a run date's raw snapshots.
func (f *SnapshotFetcher) SnapshotDir(runDate time.Time) string {
	return filepath.Join(f.pricesDir, runDate.Format("2006-01-02"))
}

// Fetch ensures a local snapshot file exists for every set id. Per-set
// failures are logged and skipped; the run proceeds with whatever snapshots
// succeeded.
func (f *SnapshotFetcher) Fetch(ctx context.Context, runDate time.Time, setIDs []int64) (FetchResult, error) {
	dir := f.SnapshotDir(runDate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FetchResult{}, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	result := FetchResult{Dir: dir}
	for i, setID := range setIDs {
		path := filepath.Join(dir, fmt.Sprintf("group_%d.csv", setID))

		if _, err := os.Stat(path); err == nil {
			slog.Info("Snapshot already exists, skipping",
				slog.String("type", "etl"),
				slog.String("path", path))
			result.Skipped++
			continue
		}

		slog.Info("Fetching snapshot",
			slog.String("type", "etl"),
			slog.Int64("set_id", setID),
			slog.Int("progress", i+1),
			slog.Int("total", len(setIDs)))

		if err := f.fetchOne(ctx, setID, path); err != nil {
			slog.Error("Failed to fetch snapshot",
				slog.String("type", "etl"),
				slog.Int64("set_id", setID),
				slog.Any("error", err))
			result.Failed++
			continue
		}
		result.Fetched++
	}

	return result, nil
}

func (f *SnapshotFetcher) fetchOne(ctx context.Context, setID int64, path string) error {
	ctx, cancel := context.WithTimeout(ctx, config.SnapshotFetchTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%d/%d/ProductsAndPrices.csv", f.baseURL, f.categoryID, setID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	// Raw response bytes are the durable record the reconcile stage
	// re-reads, so they are written verbatim.
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
