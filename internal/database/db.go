package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNotFound is returned when a keyed lookup finds no row.
var ErrNotFound = errors.New("database: not found")

// Config holds database configuration.
type Config struct {
	DatabasePath string
}

// DB wraps the sqlite connection used by all repositories.
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if needed) the sqlite database and applies pending
// migrations. Migrations are additive only; an upgrade never discards stored
// primary data.
func NewDB(cfg Config) (*DB, error) {
	if cfg.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single writer discipline: sqlite serializes writes anyway, and the
	// engine has one logical owner per session.
	conn.SetMaxOpenConns(1)

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Connection exposes the underlying handle for repositories.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Close closes the database.
func (d *DB) Close() error {
	return d.conn.Close()
}

// ClearAll wipes every collection. Each table clear is atomic on its own;
// cross-table atomicity is not required (session teardown only).
func (d *DB) ClearAll() error {
	tables := []string{
		"categories",
		"streams",
		"details",
		"sync_metadata",
		"metadata_cache",
		"daily_selections",
		"watch_progress",
	}
	for _, table := range tables {
		if _, err := d.conn.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
