// Package database owns the sqlite store behind per-owner preferences.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds database settings.
type Config struct {
	DatabasePath string
}

// DB wraps the sqlite connection and the repositories built on it.
type DB struct {
	conn *sql.DB

	Preferences *PreferencesRepository
}

// NewDB opens (creating if needed) the sqlite database at the configured
// path and applies pending migrations.
func NewDB(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	db.Preferences = NewPreferencesRepository(conn)
	return db, nil
}

// Connection exposes the underlying handle for repositories and tests.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func migrate(conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
