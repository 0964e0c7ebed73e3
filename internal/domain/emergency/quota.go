package emergency

import (
	"sync"
	"time"
)

// accessQuota caps break-glass requests per accessor over a sliding hour.
// Unlimited when max is zero or negative.
type accessQuota struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	seen   map[string][]time.Time
	nowFn  func() time.Time
}

func newAccessQuota(max int) *accessQuota {
	return &accessQuota{
		max:    max,
		window: time.Hour,
		seen:   make(map[string][]time.Time),
		nowFn:  time.Now,
	}
}

// Allow records one request for the accessor and reports whether it is
// within quota.
func (q *accessQuota) Allow(accessorID string) bool {
	if q.max <= 0 {
		return true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.nowFn()
	cutoff := now.Add(-q.window)

	kept := q.seen[accessorID][:0]
	for _, t := range q.seen[accessorID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= q.max {
		q.seen[accessorID] = kept
		return false
	}

	q.seen[accessorID] = append(kept, now)
	return true
}
