package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // The database driver
)

// Store is the handle for all episode persistence. It is constructed once
// in main and passed to everything that needs the database.
type Store struct {
	db *sqlx.DB
}

// Connect opens the database, verifies the connection and ensures the
// schema exists.
func Connect(databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	conn, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: conn}
	if err := store.ensureSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing connection. Used by tests with sqlmock.
func NewStore(conn *sqlx.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS episodes (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			text        TEXT NOT NULL,
			authors     TEXT[] NOT NULL DEFAULT '{}',
			url         TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			crawled_at  TIMESTAMPTZ NOT NULL,
			tts_job_id  TEXT,
			mp3         TEXT
		)`)
	if err != nil {
		return fmt.Errorf("failed to create episodes table: %w", err)
	}
	return nil
}
