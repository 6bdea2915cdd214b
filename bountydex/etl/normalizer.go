package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NormalizeResult carries the outcome of normalizing one snapshot file.
type NormalizeResult struct {
	Records     []CardRecord
	RowsSkipped int
}

// NormalizeFile reads one raw snapshot CSV and produces canonical records.
// Header columns are renamed through the fixed rename table; unknown columns
// are dropped and missing ones resolve through the default policy in
// ParseRow. The output shape is identical for every input file, so results
// from multiple files concatenate without schema drift.
//
// A file that cannot be opened or whose CSV structure is broken returns an
// error; the caller logs it and continues with the remaining files. Rows
// that fail ParseRow are skipped and counted without failing the file.
func NormalizeFile(path string) (NormalizeResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return NormalizeResult{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	return Normalize(file)
}

// Normalize is the reader-based core of NormalizeFile.
func Normalize(r io.Reader) (NormalizeResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return NormalizeResult{}, fmt.Errorf("failed to read header: %w", err)
	}

	// Map each input column position to its canonical name.
	canonical := make([]string, len(header))
	for i, col := range header {
		canonical[i] = columnRenames[col]
	}

	var result NormalizeResult
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return NormalizeResult{}, fmt.Errorf("failed to read row: %w", err)
		}

		raw := make(map[string]string, len(canonical))
		for i, value := range row {
			if i >= len(canonical) || canonical[i] == "" {
				continue
			}
			raw[canonical[i]] = value
		}

		rec, err := ParseRow(raw)
		if err != nil {
			result.RowsSkipped++
			slog.Debug("Skipping unparseable row",
				slog.String("type", "etl"),
				slog.Any("error", err))
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}
