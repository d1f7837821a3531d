// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server builds without CGo and a
// single binary carries its own database. Use ":memory:" for tests.
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and every ":memory:" connection
// opens its own private database. The pool is therefore capped at one open
// connection: concurrent queries queue on it instead of seeing different data
// or failing with SQLITE_BUSY.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sakif/course-marketplace/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
//   - "data/marketplace.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Off by default in SQLite. Enrollments reference courses.
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

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent, so it runs on
// each start.
//
// purchases.user_id deliberately has no foreign key: purchases are written by
// the checkout flow and may reference users this service has not synced yet.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT 'student',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS courses (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			description   TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT NOT NULL DEFAULT '',
			thumbnail_key TEXT NOT NULL DEFAULT '',
			price         REAL NOT NULL DEFAULT 0,
			discount      REAL NOT NULL DEFAULT 0,
			is_published  INTEGER NOT NULL DEFAULT 1,
			educator_id   TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'pending_thumbnail',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_courses_educator ON courses(educator_id, status, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating courses table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS course_enrollments (
			course_id   TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			user_id     TEXT NOT NULL,
			enrolled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (course_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_enrollments_user ON course_enrollments(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating course_enrollments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS purchases (
			id         TEXT PRIMARY KEY,
			course_id  TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			amount     REAL NOT NULL,
			status     TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_purchases_course_status ON purchases(course_id, status);
	`)
	if err != nil {
		return fmt.Errorf("creating purchases table: %w", err)
	}

	return nil
}

// inClause returns "?, ?, ?" for n ids together with the ids as query args.
func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}
