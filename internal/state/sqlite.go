// ABOUTME: SQLite-backed durable client state using modernc.org/sqlite
// ABOUTME: Persists the last-used session pointer across restarts

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// lastSessionKey is the single key this store writes in normal operation.
const lastSessionKey = "lastAISessionId"

// SQLiteState persists client-local state in a small key/value table.
// It backs the "resume the last conversation" behavior: the pointer is
// written on every successful create/switch and read once at startup.
type SQLiteState struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteState opens (or creates) the client state database at path.
// Parent directories are created if needed.
func NewSQLiteState(path string) (*SQLiteState, error) {
	logger := slog.Default().With("component", "state")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	// WAL keeps pointer writes cheap alongside concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS client_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("client state initialized", "path", path)
	return &SQLiteState{db: db, logger: logger}, nil
}

// LastSessionID returns the persisted last-used session identifier, or
// "" when no pointer has ever been written.
func (s *SQLiteState) LastSessionID(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM client_state WHERE key = ?", lastSessionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session pointer: %w", err)
	}
	return value, nil
}

// SetLastSessionID records id as the most recently used session.
// Last write wins.
func (s *SQLiteState) SetLastSessionID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		lastSessionKey, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing session pointer: %w", err)
	}
	return nil
}

// ClearLastSessionID removes the pointer. Only used by explicit application
// reset; an absent pointer simply means "no prior session".
func (s *SQLiteState) ClearLastSessionID(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM client_state WHERE key = ?", lastSessionKey); err != nil {
		return fmt.Errorf("clearing session pointer: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteState) Close() error {
	return s.db.Close()
}
