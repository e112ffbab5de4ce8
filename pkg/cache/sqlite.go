package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend implements Backend in a single SQLite file.
type SQLiteBackend struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteBackend opens or creates the database at path. Entries expire
// after ttl; zero keeps them forever.
func NewSQLiteBackend(path string, ttl time.Duration) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB,
		expires_at INTEGER
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &SQLiteBackend{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a value. Expired entries read as missing.
func (c *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	var (
		val     []byte
		expires sql.NullInt64
	)
	err := c.db.QueryRow(`SELECT value, expires_at FROM entries WHERE key = ?`, key).Scan(&val, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if expires.Valid && expires.Int64 <= c.now().UnixNano() {
		return nil, false, nil
	}
	if val == nil {
		val = []byte{}
	}
	return val, true, nil
}

// Set stores a value
func (c *SQLiteBackend) Set(key string, value []byte) error {
	var expires sql.NullInt64
	if c.ttl > 0 {
		expires = sql.NullInt64{Int64: c.now().Add(c.ttl).UnixNano(), Valid: true}
	}
	if value == nil {
		value = []byte{}
	}
	_, err := c.db.Exec(`INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear removes a value
func (c *SQLiteBackend) Clear(key string) error {
	if _, err := c.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Prune deletes expired entries and reports how many were removed.
func (c *SQLiteBackend) Prune() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM entries WHERE expires_at IS NOT NULL AND expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (c *SQLiteBackend) Close() error {
	return c.db.Close()
}
