package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mfroehner/topicgpt/internal/profile"
)

// ErrNotFound is returned by Load when no record exists for an identity.
var ErrNotFound = errors.New("profile not found")

// Open opens (or creates) a SQLite database at the given path, ensuring
// that the parent directory exists.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}

	return db, nil
}

// InitSchema creates the profiles table. Each row holds the full
// JSON-shaped profile document for one identity.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			identity INTEGER PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`)
	return err
}

// Store persists user profiles, one document per identity, overwritten
// wholesale on every mutation.
type Store struct {
	DB *sql.DB

	// MaxExchanges is stamped onto loaded profiles so their history
	// bound matches the running configuration.
	MaxExchanges int
}

// Load reads the profile for an identity. Returns ErrNotFound when no
// record exists.
func (s *Store) Load(identity int64) (*profile.Profile, error) {
	var document string
	err := s.DB.QueryRow(
		`SELECT document FROM profiles WHERE identity = ?`, identity,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("identity %d: %w", identity, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %d: %w", identity, err)
	}

	p := &profile.Profile{}
	if err := json.Unmarshal([]byte(document), p); err != nil {
		return nil, fmt.Errorf("decode profile %d: %w", identity, err)
	}
	p.Identity = identity
	p.MaxExchanges = s.MaxExchanges
	if p.Topics == nil {
		p.Topics = []profile.Topic{}
	}
	return p, nil
}

// Create initializes an empty profile for an identity and persists it
// immediately.
func (s *Store) Create(identity int64, displayName, language string) (*profile.Profile, error) {
	p := profile.New(identity, displayName, language, s.MaxExchanges)
	if err := s.Persist(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Persist overwrites the stored document for the profile's identity.
// Failures surface to the caller; they are never swallowed here.
func (s *Store) Persist(p *profile.Profile) error {
	document, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %d: %w", p.Identity, err)
	}
	_, err = s.DB.Exec(
		`INSERT INTO profiles (identity, document, updated_at) VALUES (?, ?, unixepoch())
		 ON CONFLICT(identity) DO UPDATE SET document = excluded.document, updated_at = unixepoch()`,
		p.Identity, string(document),
	)
	if err != nil {
		return fmt.Errorf("persist profile %d: %w", p.Identity, err)
	}
	return nil
}
