package audit

import (
	"context"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
