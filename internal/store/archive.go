package store

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amourisk/amourisk/internal/model"
)

// MaxArchiveSize caps the report archive; a save beyond capacity evicts the
// oldest entry.
const MaxArchiveSize = 10

// ListReports returns the archived reports, most recent first. A missing or
// unreadable blob yields an empty archive: stored history degrades to "no
// history" rather than blocking the user.
func (s *Store) ListReports() ([]model.Report, error) {
	blob, err := s.getBlob(keyReports)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return []model.Report{}, nil
	}
	var reports []model.Report
	if err := s.codec.Open(blob, &reports); err != nil {
		slog.Warn("report archive unreadable, treating as empty", "error", err)
		return []model.Report{}, nil
	}
	return reports, nil
}

// SaveReport prepends the report to the archive under a fresh
// timestamp-derived id, truncates to capacity, and rewrites the whole blob.
// It returns the stored copy.
func (s *Store) SaveReport(report model.Report) (model.Report, error) {
	reports, err := s.ListReports()
	if err != nil {
		return model.Report{}, err
	}

	now := time.Now()
	report.ID = freshArchiveID(now, reports)
	report.CreatedAt = now

	reports = append([]model.Report{report}, reports...)
	if len(reports) > MaxArchiveSize {
		reports = reports[:MaxArchiveSize]
	}

	blob, err := s.codec.Seal(reports)
	if err != nil {
		return model.Report{}, err
	}
	if err := s.setBlob(keyReports, blob); err != nil {
		return model.Report{}, err
	}
	return report, nil
}

// DeleteReport removes a report by id and rewrites the blob. Deleting an id
// that is not archived is a no-op.
func (s *Store) DeleteReport(id string) error {
	reports, err := s.ListReports()
	if err != nil {
		return err
	}
	kept := reports[:0]
	for _, r := range reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(reports) {
		return nil
	}
	blob, err := s.codec.Seal(kept)
	if err != nil {
		return err
	}
	return s.setBlob(keyReports, blob)
}

// freshArchiveID derives an archive id from the wall clock, falling back to a
// random id when two saves land in the same millisecond.
func freshArchiveID(now time.Time, existing []model.Report) string {
	id := strconv.FormatInt(now.UnixMilli(), 10)
	for _, r := range existing {
		if r.ID == id {
			return uuid.NewString()
		}
	}
	return id
}
