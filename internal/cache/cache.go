// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists index match verdicts in a local SQLite database,
// keyed by source and a content fingerprint of the reference. Re-running a
// bibliography only re-queries the indexes for references that changed.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibmatch/internal/textnorm"
	"github.com/pdiddy/bibmatch/pkg/types"
)

const dbFile = "matches.db"

// Store is a SQLite-backed match cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the match database at dir/matches.db, creating the
// schema if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS matches (
		source      TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		match       TEXT NOT NULL,
		PRIMARY KEY (source, fingerprint)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get returns the cached verdict for (source, ref) and whether one exists.
// An undecodable row counts as a miss so a schema change cannot wedge runs.
func (s *Store) Get(source types.Source, ref types.ExtractedReference) (types.IndexMatch, bool, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT match FROM matches WHERE source = ? AND fingerprint = ?`,
		string(source), Fingerprint(ref),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return types.IndexMatch{}, false, nil
	}
	if err != nil {
		return types.IndexMatch{}, false, fmt.Errorf("reading cached match: %w", err)
	}

	var match types.IndexMatch
	if err := json.Unmarshal([]byte(payload), &match); err != nil {
		return types.IndexMatch{}, false, nil
	}
	return match, true, nil
}

// Put stores a verdict for (source, ref), replacing any previous one.
func (s *Store) Put(source types.Source, ref types.ExtractedReference, match types.IndexMatch) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("encoding match: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO matches (source, fingerprint, match) VALUES (?, ?, ?)
		 ON CONFLICT(source, fingerprint) DO UPDATE SET match=excluded.match`,
		string(source), Fingerprint(ref), string(payload),
	)
	if err != nil {
		return fmt.Errorf("writing cached match: %w", err)
	}
	return nil
}

// Fingerprint derives a stable cache key from the fields that drive
// matching. Normalization means cosmetic edits (casing, accents, DOI
// resolver prefixes) do not invalidate cached verdicts.
func Fingerprint(ref types.ExtractedReference) string {
	key := strings.Join([]string{
		textnorm.Normalize(ref.Title),
		textnorm.NormalizeDOI(ref.DOI),
		ref.YearString(),
		textnorm.Normalize(ref.FirstAuthorLastName()),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
