package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Event represents a row in the github_events table. event_id is
// the feed's own identifier; re-importing a known id is a no-op.
type Event struct {
	ID        string
	Type      string
	Repo      string
	CreatedAt time.Time
	Payload   []byte
}

// InsertEvents stores events idempotently and returns how many
// rows were actually new. All rows go in one transaction.
func (db *DB) InsertEvents(
	ctx context.Context, events []Event,
) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	inserted := 0
	err := db.Update(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO github_events
				(event_id, event_type, repo_label,
				 created_ts, payload)
			 VALUES (?, ?, ?, ?, ?)`,
		)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range events {
			var repo any
			if e.Repo != "" {
				repo = e.Repo
			}
			res, err := stmt.ExecContext(ctx,
				e.ID, e.Type, repo,
				formatTime(e.CreatedAt), e.Payload,
			)
			if err != nil {
				return fmt.Errorf(
					"inserting event %s: %w", e.ID, err,
				)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// HasEvent reports whether an event id is already stored.
func (db *DB) HasEvent(ctx context.Context, id string) (bool, error) {
	var count int
	err := db.reader.QueryRowContext(ctx,
		"SELECT count(*) FROM github_events WHERE event_id = ?", id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking event %s: %w", id, err)
	}
	return count > 0, nil
}

// TypeCount is one event type with its occurrence count.
type TypeCount struct {
	Type  string
	Count int
}

// EventCountsByType returns per-type counts for events created
// within the local calendar day containing t, ordered by count
// descending then type ascending.
func (db *DB) EventCountsByType(
	ctx context.Context, t time.Time,
) ([]TypeCount, error) {
	t = t.Local()
	dayStart := time.Date(
		t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location(),
	)
	rows, err := db.reader.QueryContext(ctx,
		`SELECT event_type, count(*) FROM github_events
		 WHERE created_ts >= ? AND created_ts < ?
		 GROUP BY event_type`,
		formatTime(dayStart), formatTime(dayStart.AddDate(0, 0, 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("querying event counts: %w", err)
	}
	defer rows.Close()

	var counts []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, fmt.Errorf("scanning event count: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event counts: %w", err)
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})
	return counts, nil
}
