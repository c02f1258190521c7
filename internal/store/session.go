package store

import (
	"encoding/json"
	"log/slog"

	"github.com/amourisk/amourisk/internal/model"
)

// SaveSession snapshots the in-progress session so a restart can resume it.
// The snapshot is plain JSON; only the archive and usage blobs are sealed.
func (s *Store) SaveSession(sess model.TestSession) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.setBlob(keySession, blob)
}

// LoadSession returns the snapshotted session, or nil when there is none.
// A corrupt snapshot is discarded.
func (s *Store) LoadSession() (*model.TestSession, error) {
	blob, err := s.getBlob(keySession)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var sess model.TestSession
	if err := json.Unmarshal(blob, &sess); err != nil {
		slog.Warn("session snapshot unreadable, discarding", "error", err)
		_ = s.deleteBlob(keySession)
		return nil, nil
	}
	return &sess, nil
}

// ClearSession drops the session snapshot.
func (s *Store) ClearSession() error {
	return s.deleteBlob(keySession)
}
