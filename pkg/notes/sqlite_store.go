package notes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ircbot/pkg/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps notes in a single-table SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open notes database: %w", err)
	}

	// One connection keeps read-modify-append sequences ordered.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate notes database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS notes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		user       TEXT NOT NULL,
		content    TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Read(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT created_at, user, content FROM notes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var createdAt string
		var note Note
		if err := rows.Scan(&createdAt, &note.User, &note.Content); err != nil {
			return nil, storage.Corrupt("scan note row", err)
		}

		at, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, storage.Corrupt("note timestamp", err)
		}
		note.Timestamp = at
		notes = append(notes, note)
	}

	return notes, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, user string, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (created_at, user, content) VALUES (?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano), user, content,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Wipe(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return fmt.Errorf("wipe notes: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
