// Package postgres implements the repository interfaces on PostgreSQL.
//
// The driver is pgx used through its database/sql adapter, so the query code
// reads the same as the sqlite package apart from $n placeholders and
// ANY($1) for batched lookups. Schema changes are versioned goose migrations
// embedded into the binary and applied on startup.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/course-marketplace/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// New connects to dsn, verifies the connection and migrates the schema.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// NewWithConn wraps an already migrated connection pool.
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, conn *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, conn, dir, opts...)
}

// Migrate applies every embedded migration not yet recorded in goose's
// version table.
func Migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, conn, "migrations")
}
