package notes

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS notes (
		name      TEXT PRIMARY KEY,
		body      TEXT NOT NULL,
		createdAt REAL NOT NULL
	);
`

// SQLiteStore keeps notes in a single SQLite database, using the same
// timestamp names as FileStore.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Write(at time.Time, text string) (string, error) {
	createdAt := float64(at.UnixNano()) / 1e9

	for seq := 0; ; seq++ {
		name := Name(at, seq)
		res, err := s.db.Exec(`
			INSERT INTO notes (name, body, createdAt)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`, name, text, createdAt)
		if err != nil {
			return "", fmt.Errorf("insert note: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("insert note: %w", err)
		}
		if n == 1 {
			return name, nil
		}
	}
}

func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM notes ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Read(name string, maxChars int) (string, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM notes WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("scan note: %w", err)
	}
	return truncate(body, maxChars), nil
}
