// Package store is the device-local persistence layer: one sqlite database
// holding a blob per logical store (report archive, usage counters, validated
// access code, session snapshot). The archive and counter blobs are sealed by
// secure.Codec; the rest are plain payloads.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/amourisk/amourisk/internal/secure"

	_ "modernc.org/sqlite"
)

// Logical blob keys.
const (
	keyReports       = "reports"
	keyValidatedCode = "validated_code"
	keySession       = "session"
	usagePrefix      = "usage:"
)

type Store struct {
	db    *sql.DB
	codec *secure.Codec
}

func New(dbPath string, codec *secure.Codec) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, codec: codec}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// setBlob upserts a blob under a key.
func (s *Store) setBlob(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?`,
		key, value, time.Now(), value, time.Now(),
	)
	return err
}

// getBlob returns the blob for a key, or nil when the key is absent.
func (s *Store) getBlob(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return value, err
}

func (s *Store) deleteBlob(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	return err
}

// ClearAll wipes every logical store in one transaction: the report archive,
// all device usage counters, the validated access code, and the session
// snapshot.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, key := range []string{keyReports, keyValidatedCode, keySession} {
		if _, err := tx.Exec(`DELETE FROM blobs WHERE key = ?`, key); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM blobs WHERE key LIKE ?`, usagePrefix+"%"); err != nil {
		return err
	}
	return tx.Commit()
}
