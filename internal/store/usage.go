package store

import (
	"log/slog"

	"github.com/amourisk/amourisk/internal/model"
)

// GetUsage returns the usage counter for a device fingerprint, or nil when
// none is recorded. An unreadable counter is treated as absent.
func (s *Store) GetUsage(fingerprint string) (*model.UsageCounter, error) {
	blob, err := s.getBlob(usagePrefix + fingerprint)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var counter model.UsageCounter
	if err := s.codec.Open(blob, &counter); err != nil {
		slog.Warn("usage counter unreadable, treating as absent", "fingerprint", fingerprint, "error", err)
		return nil, nil
	}
	return &counter, nil
}

// SetUsage seals and stores the usage counter for a device fingerprint.
func (s *Store) SetUsage(fingerprint string, counter model.UsageCounter) error {
	blob, err := s.codec.Seal(counter)
	if err != nil {
		return err
	}
	return s.setBlob(usagePrefix+fingerprint, blob)
}
