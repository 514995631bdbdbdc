package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/splitcheck/splitcheck/internal/stats"
)

// CSVSource reads records from a CSV file with a header row
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Load(ctx context.Context) ([]stats.VisitorRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

func (s *CSVSource) Close() error {
	return nil
}

// ReadCSV parses records from r. The header must name a "group" and a
// "converted" column; "timestamp" is optional and other columns are ignored.
func ReadCSV(ctx context.Context, r io.Reader) ([]stats.VisitorRecord, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	groupCol, convertedCol, timestampCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "group":
			groupCol = i
		case "converted":
			convertedCol = i
		case "timestamp":
			timestampCol = i
		}
	}
	if groupCol < 0 || convertedCol < 0 {
		return nil, fmt.Errorf("csv header must contain 'group' and 'converted' columns, got %v", header)
	}

	var records []stats.VisitorRecord
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		group := strings.TrimSpace(row[groupCol])
		if group == "" {
			return nil, fmt.Errorf("line %d: empty group", line)
		}

		converted, err := parseConverted(row[convertedCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := stats.VisitorRecord{Group: group, Converted: converted}
		if timestampCol >= 0 {
			rec.Timestamp, err = parseTimestamp(row[timestampCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}
