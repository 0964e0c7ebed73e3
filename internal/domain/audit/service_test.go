package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*Entry
}

func (m *mockAuditRepo) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockAuditRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Entry
	for _, e := range m.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Actor != "" && e.Actor != f.Actor {
			continue
		}
		cp := *e
		all = append(all, &cp)
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockAuditRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*Entry
	var purged int64
	for _, e := range m.entries {
		if e.RecordedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return purged, nil
}

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewService(repo)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return fixed }

	if err := svc.Record(context.Background(), Entry{Actor: "admin", Action: ActionApprove}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	e := repo.entries[0]
	if e.ID == uuid.Nil {
		t.Fatal("id not filled")
	}
	if !e.RecordedAt.Equal(fixed) {
		t.Fatalf("recorded at = %s, want %s", e.RecordedAt, fixed)
	}
}

func TestRecordKeepsExplicitFields(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewService(repo)

	id := uuid.New()
	at := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)
	if err := svc.Record(context.Background(), Entry{ID: id, RecordedAt: at, Action: ActionLogin}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	e := repo.entries[0]
	if e.ID != id || !e.RecordedAt.Equal(at) {
		t.Fatalf("entry = %+v, explicit fields must survive", e)
	}
}

func TestPurgeRespectsRetention(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewService(repo)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	old := Entry{ID: uuid.New(), RecordedAt: now.Add(-48 * time.Hour), Action: ActionLogin}
	fresh := Entry{ID: uuid.New(), RecordedAt: now.Add(-time.Hour), Action: ActionLogin}
	_ = svc.Record(context.Background(), old)
	_ = svc.Record(context.Background(), fresh)

	n, err := svc.PurgeOlderThan(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}

	// Non-positive retention disables purging entirely.
	n, err = svc.PurgeOlderThan(context.Background(), 0)
	if err != nil || n != 0 {
		t.Fatalf("disabled purge = %d, %v", n, err)
	}
}
