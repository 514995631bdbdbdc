// Package dataset loads visitor records from the files an experiment is
// exported to. Parsing and validation happen here so the stats package only
// ever sees clean in-memory records.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/splitcheck/splitcheck/internal/stats"
)

const DefaultTable = "visitors"

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Source yields the records of one experiment
type Source interface {
	Load(ctx context.Context) ([]stats.VisitorRecord, error)
	Close() error
}

// Open picks a source from the file extension: .csv files are read as CSV,
// .db, .sqlite and .sqlite3 files as SQLite databases holding table.
func Open(path, table string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVSource(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path, table)
	default:
		return nil, fmt.Errorf("%w: %s (expected .csv, .db or .sqlite)", ErrUnsupportedFormat, path)
	}
}

// Load opens path, reads every record and closes the source.
func Load(ctx context.Context, path, table string) ([]stats.VisitorRecord, error) {
	src, err := Open(path, table)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.Load(ctx)
}

func parseConverted(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid converted value %q", s)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the layouts above or unix seconds. An empty value
// yields the zero time.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
