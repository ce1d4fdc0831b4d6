// Package sqlite stores slot values in a SQLite key-value table.
// Local files go through modernc.org/sqlite; libsql:// and wss:// URLs
// go through the Turso libSQL driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/MrSnakeDoc/bookmarker/internal/slot"
	"github.com/MrSnakeDoc/bookmarker/internal/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// Slot is a SQLite-backed persistent slot.
type Slot struct {
	db     *sql.DB
	driver string
}

// DriverFor returns the database/sql driver name for a database URL.
func DriverFor(dbURL string) string {
	if strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://") {
		return "libsql"
	}
	return "sqlite"
}

// Open connects to dbURL and creates the slots table if needed.
func Open(ctx context.Context, dbURL string) (*Slot, error) {
	driver := DriverFor(dbURL)

	db, err := sql.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == "sqlite" {
		// Single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			utils.Close(db)
			return nil, fmt.Errorf("set wal mode: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		utils.Close(db)
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		utils.Close(db)
		return nil, fmt.Errorf("create slots table: %w", err)
	}

	return &Slot{db: db, driver: driver}, nil
}

// Get returns the value stored under key.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, slot.ErrSlotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the whole value under key.
func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Names returns the stored keys, sorted.
func (s *Slot) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM slots ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer utils.Close(rows)

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan slot key: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return names, nil
}

// Ping checks the connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns "sqlite" or "libsql".
func (s *Slot) Driver() string { return s.driver }

// Close closes the database.
func (s *Slot) Close() error {
	return s.db.Close()
}
