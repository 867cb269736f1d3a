// Package store keeps taskdeck's local state in a sqlite file: the persisted
// session, a cached user lookup table, and the last task snapshot used to
// paint the board before the first network load resolves.
package store

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store wraps the database connection
type Store struct {
	*sql.DB
}

// New opens the store at the default path and initializes the schema
func New() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Open opens the store at an explicit path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

// defaultPath returns the path to the state file
func defaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "taskdeck")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(appDir, "taskdeck.db"), nil
}

// GetSetting retrieves a setting value by key
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (s *Store) SetSetting(key, value string) error {
	_, err := s.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteSetting removes a setting
func (s *Store) DeleteSetting(key string) error {
	_, err := s.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}
