// Package storage persists advising transcripts in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const memoryPath = ":memory:"

// connPragmas run on every new connection. busy_timeout in particular is
// per connection, so it cannot be set once after opening.
var connPragmas = []string{
	"busy_timeout(30000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// DB is a SQLite handle with the transcript schema applied.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func New(ctx context.Context, path string) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == memoryPath {
		// Each connection to :memory: would see its own empty database.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
	}
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &DB{conn: conn, path: path}, nil
}

// dsn builds a file URI carrying connPragmas for the modernc driver.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the file the database lives in.
func (db *DB) Path() string {
	return db.path
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// NewTestDB opens a private in-memory database.
func NewTestDB() (*DB, error) {
	return New(context.Background(), memoryPath)
}
