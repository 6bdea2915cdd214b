package etl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RunReport is the structured outcome of one pipeline run. Per-file and
// per-row failures accumulate here instead of aborting the run; only
// database-level failures abort.
type RunReport struct {
	RunDate time.Time

	SetsSynced       int
	SnapshotsFetched int
	SnapshotsSkipped int
	SnapshotsFailed  int
	FilesParsed      int
	FilesFailed      int
	FeedRows         int
	RowsSkipped      int
	CardsInserted    int
	CardsUpdated     int
	CardsTouched     int64
	HistoryAppended  int
	HistoryFilled    int
	Archived         int

	Errors []string
}

func (r *RunReport) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// SnapshotArchiver pushes a run's raw snapshot directory to durable storage.
type SnapshotArchiver interface {
	ArchiveDir(ctx context.Context, dir string, runDate time.Time) (int, error)
}

// RunOptions controls a single pipeline run.
type RunOptions struct {
	// RunDate defaults to today (UTC) when zero.
	RunDate time.Time
	// SkipFetch reprocesses existing snapshot files without touching the
	// network, for reloading a day after a schema or parsing fix.
	SkipFetch bool
	// Archive uploads the snapshot directory after a successful run.
	Archive bool
}

// Pipeline wires the daily stages in order: set sync, snapshot fetch,
// normalize, catalog reconcile, history append, optional archive.
type Pipeline struct {
	syncer   *SetSyncer
	fetcher  *SnapshotFetcher
	reconcil *Reconciler
	history  *HistoryAppender
	archiver SnapshotArchiver
}

func NewPipeline(syncer *SetSyncer, fetcher *SnapshotFetcher, reconcil *Reconciler, history *HistoryAppender, archiver SnapshotArchiver) *Pipeline {
	return &Pipeline{
		syncer:   syncer,
		fetcher:  fetcher,
		reconcil: reconcil,
		history:  history,
		archiver: archiver,
	}
}

// Run executes one full pipeline pass and returns its report. The report is
// returned even on error, carrying whatever stages completed.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	runDate := opts.RunDate
	if runDate.IsZero() {
		runDate = time.Now().UTC()
	}
	report := &RunReport{RunDate: runDate}

	started := time.Now()
	slog.Info("Pipeline run starting",
		slog.String("type", "etl"),
		slog.String("date", runDate.Format("2006-01-02")),
		slog.Bool("skip_fetch", opts.SkipFetch))

	dir := p.fetcher.SnapshotDir(runDate)
	if opts.SkipFetch {
		slog.Info("Skipping set sync and snapshot fetch",
			slog.String("type", "etl"),
			slog.String("dir", dir))
	} else {
		setIDs, err := p.syncer.Sync(ctx)
		if err != nil {
			return report, fmt.Errorf("set sync failed: %w", err)
		}
		report.SetsSynced = len(setIDs)

		fetch, err := p.fetcher.Fetch(ctx, runDate, setIDs)
		if err != nil {
			return report, fmt.Errorf("snapshot fetch failed: %w", err)
		}
		report.SnapshotsFetched = fetch.Fetched
		report.SnapshotsSkipped = fetch.Skipped
		report.SnapshotsFailed = fetch.Failed
		dir = fetch.Dir
	}

	records, err := p.loadSnapshots(dir, report)
	if err != nil {
		return report, err
	}
	report.FeedRows = len(records)

	if len(records) == 0 {
		// An empty feed usually means the fetch stage failed wholesale.
		// Reconciling would touch-advance every row and the history stage
		// would fill the whole day from stale catalog prices, so stop here.
		return report, fmt.Errorf("no feed rows parsed from %s", dir)
	}

	rec, err := p.reconcil.Reconcile(ctx, records, runDate)
	if err != nil {
		return report, fmt.Errorf("catalog reconcile failed: %w", err)
	}
	report.CardsInserted = rec.Inserted
	report.CardsUpdated = rec.Updated
	report.CardsTouched = rec.Touched

	hist, err := p.history.Append(ctx, rec.Records, runDate)
	if err != nil {
		return report, fmt.Errorf("history append failed: %w", err)
	}
	report.HistoryAppended = hist.Appended
	report.HistoryFilled = hist.Filled

	if opts.Archive && p.archiver != nil {
		uploaded, err := p.archiver.ArchiveDir(ctx, dir, runDate)
		if err != nil {
			// Archival is best-effort: the local snapshot dir remains the
			// source of truth for a re-run.
			report.addError("archive failed: %v", err)
			slog.Error("Snapshot archive failed",
				slog.String("type", "etl"),
				slog.Any("error", err))
		}
		report.Archived = uploaded
	}

	slog.Info("Pipeline run complete",
		slog.String("type", "etl"),
		slog.String("date", runDate.Format("2006-01-02")),
		slog.Duration("elapsed", time.Since(started)),
		slog.Int("inserted", report.CardsInserted),
		slog.Int("updated", report.CardsUpdated),
		slog.Int("history_appended", report.HistoryAppended),
		slog.Int("history_filled", report.HistoryFilled),
		slog.Int("errors", len(report.Errors)))

	return report, nil
}

// loadSnapshots normalizes every snapshot CSV in the run directory, sorted
// by name for deterministic last-wins dedup ordering.
func (p *Pipeline) loadSnapshots(dir string, report *RunReport) ([]CardRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var records []CardRecord
	for _, name := range names {
		path := filepath.Join(dir, name)
		result, err := NormalizeFile(path)
		if err != nil {
			report.FilesFailed++
			report.addError("parse %s: %v", name, err)
			slog.Error("Failed to parse snapshot file",
				slog.String("type", "etl"),
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		report.FilesParsed++
		report.RowsSkipped += result.RowsSkipped
		records = append(records, result.Records...)
	}
	return records, nil
}
