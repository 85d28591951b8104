// Package history keeps a log of past sessions in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"parlo/internal/assistant"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	startedAt REAL NOT NULL,
	durationMs INTEGER NOT NULL,
	status TEXT NOT NULL,
	route TEXT NOT NULL,
	samples INTEGER NOT NULL,
	audioPath TEXT,
	transcript TEXT,
	reply TEXT,
	error TEXT
);
CREATE INDEX IF NOT EXISTS sessions_started ON sessions(startedAt);
`

type Entry struct {
	ID         string
	StartedAt  time.Time
	Duration   time.Duration
	Status     string
	Route      string
	Samples    int
	AudioPath  string
	Transcript string
	Reply      string
	Error      string
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, out assistant.Outcome) error {
	var errText sql.NullString
	if out.Err != nil {
		errText = sql.NullString{String: out.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, startedAt, durationMs, status, route, samples, audioPath, transcript, reply, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, out.ID, unixFromTime(out.StartedAt), out.Duration.Milliseconds(), out.Status(), out.Route.String(),
		out.Samples, out.AudioPath, out.Transcript, out.Reply, errText)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, startedAt, durationMs, status, route, samples, audioPath, transcript, reply, error
		FROM sessions
		ORDER BY startedAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt float64
		var durationMs int64
		var audioPath, transcript, reply, errText sql.NullString
		if err := rows.Scan(&e.ID, &startedAt, &durationMs, &e.Status, &e.Route, &e.Samples,
			&audioPath, &transcript, &reply, &errText); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		e.StartedAt = timeFromUnix(startedAt)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.AudioPath = audioPath.String
		e.Transcript = transcript.String
		e.Reply = reply.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
