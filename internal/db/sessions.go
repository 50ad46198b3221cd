package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sessionCols is the column list for session queries.
// Keep in sync with scanSessionRow.
const sessionCols = `id, start_ts, end_ts, duration_ms,
	app, pid, window_title, exe_path, is_idle`

// Session represents a row in the sessions table. Rows are
// append-only: a session is written once, when it closes, and
// never mutated afterwards.
type Session struct {
	ID      int64
	Start   time.Time
	End     time.Time
	App     string
	PID     int
	Title   string
	ExePath *string
	Idle    bool
}

// Duration returns the session span. Never negative for
// persisted rows.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows,
// allowing a single scan helper for both.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSessionRow scans sessionCols into a Session.
func scanSessionRow(rs rowScanner) (Session, error) {
	var (
		s          Session
		start, end string
		durMs      int64
		idle       int
	)
	err := rs.Scan(
		&s.ID, &start, &end, &durMs,
		&s.App, &s.PID, &s.Title, &s.ExePath, &idle,
	)
	if err != nil {
		return Session{}, err
	}
	if s.Start, err = parseTime(start); err != nil {
		return Session{}, fmt.Errorf("parsing start_ts: %w", err)
	}
	if s.End, err = parseTime(end); err != nil {
		return Session{}, fmt.Errorf("parsing end_ts: %w", err)
	}
	s.Idle = idle != 0
	return s, nil
}

// InsertSession appends one session row. Sessions shorter than
// the write floor are silently discarded; returns false when the
// row was not written.
func (db *DB) InsertSession(ctx context.Context, s Session) (bool, error) {
	d := s.Duration()
	if d < 0 {
		return false, fmt.Errorf(
			"session for %q ends before it starts", s.App,
		)
	}
	if d < db.WriteFloor() {
		return false, nil
	}

	idle := 0
	if s.Idle {
		idle = 1
	}
	err := db.Update(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions
				(start_ts, end_ts, duration_ms, app, pid,
				 window_title, exe_path, is_idle)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			formatTime(s.Start), formatTime(s.End),
			d.Milliseconds(), s.App, s.PID,
			s.Title, s.ExePath, idle,
		)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return true, nil
}

// SessionsBetween returns sessions whose start falls in
// [from, to), ordered by start ascending.
func (db *DB) SessionsBetween(
	ctx context.Context, from, to time.Time,
) ([]Session, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT `+sessionCols+` FROM sessions
		 WHERE start_ts >= ? AND start_ts < ?
		 ORDER BY start_ts ASC`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// SessionsForDay returns sessions whose start falls within the
// local calendar day containing t, ordered by start ascending.
func (db *DB) SessionsForDay(
	ctx context.Context, t time.Time,
) ([]Session, error) {
	t = t.Local()
	dayStart := time.Date(
		t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location(),
	)
	return db.SessionsBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
}
