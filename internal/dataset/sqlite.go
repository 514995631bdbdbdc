package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/splitcheck/splitcheck/internal/stats"
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads records from a table with "group", converted and
// (optionally null) timestamp columns. The database is opened read-only.
type SQLiteSource struct {
	db    *sql.DB
	table string
}

func OpenSQLite(dbPath, table string) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	// mode=ro would otherwise surface a missing file only on first query
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteSource{db: db, table: table}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Load(ctx context.Context) ([]stats.VisitorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT "group", converted, timestamp FROM %s ORDER BY rowid`, s.table),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []stats.VisitorRecord
	for rows.Next() {
		var group, converted string
		var timestamp sql.NullString
		if err := rows.Scan(&group, &converted, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		rec := stats.VisitorRecord{Group: group}
		rec.Converted, err = parseConverted(converted)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		if timestamp.Valid {
			rec.Timestamp, err = parseTimestamp(timestamp.String)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
			}
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}
