package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder is the write side of the audit trail. Every state-changing
// directory operation records an entry through this interface.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type Service struct {
	repo  Repository
	nowFn func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, nowFn: time.Now}
}

// Record appends an entry, filling in the id and timestamp when unset. The
// append is unconditional and ordering-preserving; it fails only when
// storage is unavailable.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = s.nowFn().UTC()
	}
	return s.repo.Append(ctx, &e)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// PurgeOlderThan removes entries recorded before the retention cutoff. A
// non-positive retention disables purging.
func (s *Service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.PurgeOlderThan(ctx, s.nowFn().UTC().Add(-retention))
}
