package sqlite

import (
	"fmt"
	"time"

	"github.com/example/roombook/internal/scheduler"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func formatDate(d scheduler.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDate(value string) (scheduler.Date, error) {
	if value == "" {
		return scheduler.Date{}, nil
	}
	return scheduler.ParseDate(value)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collectIDs reads a single text column from rows.
func collectIDs(rows interface {
	scanner
	Next() bool
	Err() error
	Close() error
}) ([]string, error) {
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}
