// Package sqlite implements the repository interfaces on an embedded
// SQLite database (modernc.org/sqlite, pure Go, no CGo toolchain needed).
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during writes; foreign keys are off by
	// default in SQLite and we rely on them for the user → saved cascade.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                     TEXT PRIMARY KEY,
			email                  TEXT NOT NULL UNIQUE,
			password_hash          TEXT NOT NULL DEFAULT '',
			name                   TEXT NOT NULL,
			profile_photo          TEXT NOT NULL DEFAULT '',
			language               TEXT NOT NULL DEFAULT 'en',
			has_selected_language  INTEGER NOT NULL DEFAULT 0,
			interests              TEXT NOT NULL DEFAULT '[]',
			has_selected_interests INTEGER NOT NULL DEFAULT 0,
			phone_number           TEXT NOT NULL DEFAULT '',
			address                TEXT NOT NULL DEFAULT '',
			last_login             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_verified            INTEGER NOT NULL DEFAULT 0,
			verification_code      TEXT NOT NULL DEFAULT '',
			verification_expires   DATETIME,
			reset_token            TEXT NOT NULL DEFAULT '',
			reset_token_expires    DATETIME,
			role                   TEXT NOT NULL DEFAULT 'user',
			notify_email           INTEGER NOT NULL DEFAULT 1,
			notify_push            INTEGER NOT NULL DEFAULT 1,
			notify_newsletter      INTEGER NOT NULL DEFAULT 0,
			github_id              INTEGER,
			created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id
			ON users(github_id) WHERE github_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS saved_articles (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			article_id   TEXT NOT NULL,
			title        TEXT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			publish_date DATETIME NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL DEFAULT '',
			image        TEXT NOT NULL DEFAULT '',
			tags         TEXT NOT NULL DEFAULT '[]',
			author       TEXT NOT NULL DEFAULT 'Unknown',
			read_time    TEXT NOT NULL DEFAULT '5 min read',
			is_read      INTEGER NOT NULL DEFAULT 0,
			category     TEXT NOT NULL DEFAULT 'general',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, article_id)
		);
		CREATE INDEX IF NOT EXISTS idx_saved_articles_user_id ON saved_articles(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating saved_articles table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's unique-constraint
// failure. The driver has no typed error for it, so we match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
