// Package journal keeps a local audit log of operator actions issued through
// the CLI: what was done, against which channel and project, and how it went.
// It is advisory local state only; the server remains authoritative for all
// control-plane data.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one recorded operator action.
type Entry struct {
	ID        string
	Op        string
	Channel   string
	Project   string
	Outcome   string // "ok" or "error"
	Detail    string
	CreatedAt time.Time
}

// Journal is a SQLite-backed action log at <home>/journal.sqlite.
type Journal struct {
	DB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	op         TEXT NOT NULL,
	channel    TEXT NOT NULL,
	project    TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
`

// Open opens (creating if needed) the journal database under home.
func Open(home string) (*Journal, error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + filepath.Join(home, "journal.sqlite") + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	j := &Journal{DB: db}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	if j == nil || j.DB == nil {
		return nil
	}
	return j.DB.Close()
}

// Record appends an entry. Errors are returned but callers typically treat
// recording as fire-and-forget.
func (j *Journal) Record(ctx context.Context, op, channel, project, outcome, detail string) error {
	_, err := j.DB.ExecContext(ctx,
		`INSERT INTO entries (id, op, channel, project, outcome, detail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), op, channel, project, outcome, detail, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns up to limit entries, newest first. limit <= 0 returns 50.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.DB.QueryContext(ctx,
		`SELECT id, op, channel, project, outcome, detail, created_at FROM entries ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Op, &e.Channel, &e.Project, &e.Outcome, &e.Detail, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
