package testutil

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/splitcheck/splitcheck/internal/stats"
	_ "modernc.org/sqlite"
)

// Group returns n records labelled group, the first converted of which
// have converted.
func Group(group string, n, converted int) []stats.VisitorRecord {
	records := make([]stats.VisitorRecord, n)
	for i := range records {
		records[i] = stats.VisitorRecord{Group: group, Converted: i < converted}
	}
	return records
}

// Experiment returns a control and treatment record set with the given
// sizes and conversion counts.
func Experiment(nControl, convControl, nTreatment, convTreatment int) []stats.VisitorRecord {
	records := Group(stats.DefaultControlLabel, nControl, convControl)
	return append(records, Group(stats.DefaultTreatmentLabel, nTreatment, convTreatment)...)
}

// Stamp assigns timestamps to records, one hour apart starting at start.
func Stamp(records []stats.VisitorRecord, start time.Time) []stats.VisitorRecord {
	for i := range records {
		records[i].Timestamp = start.Add(time.Duration(i) * time.Hour)
	}
	return records
}

// WriteCSV writes records to a CSV file in the test's temp dir using the
// column layout of the classic ab_data.csv export.
func WriteCSV(t *testing.T, records []stats.VisitorRecord) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ab_data.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "timestamp", "group", "landing_page", "converted"}); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for i, r := range records {
		page := "old_page"
		if r.Group == stats.DefaultTreatmentLabel {
			page = "new_page"
		}
		row := []string{
			strconv.Itoa(i + 1),
			formatTimestamp(r.Timestamp),
			r.Group,
			page,
			boolDigit(r.Converted),
		}
		if err := w.Write(row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("failed to flush csv: %v", err)
	}

	return path
}

// WriteSQLite creates a database in the test's temp dir holding records in
// table.
func WriteSQLite(t *testing.T, table string, records []stats.VisitorRecord) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ab_data.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	schema := fmt.Sprintf(`CREATE TABLE %s (
    user_id INTEGER PRIMARY KEY AUTOINCREMENT,
    "group" TEXT NOT NULL,
    converted INTEGER NOT NULL,
    timestamp TEXT
)`, table)
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s ("group", converted, timestamp) VALUES (?, ?, ?)`, table)
	for _, r := range records {
		var ts sql.NullString
		if !r.Timestamp.IsZero() {
			ts = sql.NullString{String: formatTimestamp(r.Timestamp), Valid: true}
		}
		if _, err := db.Exec(insert, r.Group, boolDigit(r.Converted), ts); err != nil {
			t.Fatalf("failed to insert record: %v", err)
		}
	}

	return path
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format("2006-01-02 15:04:05.000000")
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
