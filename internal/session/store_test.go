package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pdv/internal/core"
	"pdv/internal/ledger"
	"pdv/internal/ledger/memory"
)

type closeCounter struct {
	ledger.Ledger
	mu     *sync.Mutex
	closed *int
}

func (c closeCounter) Close() error {
	c.mu.Lock()
	*c.closed++
	c.mu.Unlock()
	return c.Ledger.Close()
}

func newCountingFactory() (ledger.Factory, func() int) {
	var mu sync.Mutex
	closed := 0
	f := func(ctx context.Context, id string) (ledger.Ledger, error) {
		return closeCounter{Ledger: memory.New(), mu: &mu, closed: &closed}, nil
	}
	return f, func() int {
		mu.Lock()
		defer mu.Unlock()
		return closed
	}
}

func TestStoreIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	st := NewStore(StoreConfig{TTL: time.Hour, MaxSize: 10}, memory.NewFactory(), nil)

	a, created, err := st.GetOrCreate(ctx, "")
	if err != nil || !created {
		t.Fatalf("GetOrCreate: created=%v err=%v", created, err)
	}
	b, _, _ := st.GetOrCreate(ctx, "unknown-id")
	if a.ID == b.ID {
		t.Fatalf("expected distinct sessions")
	}

	if _, err := a.SubmitSale(ctx, "Falda", "10"); err != nil {
		t.Fatalf("SubmitSale: %v", err)
	}
	a.SubmitNote("solo en A")

	if ledgerLen(t, b) != 0 || len(b.Notes()) != 0 {
		t.Fatalf("session B sees state of session A")
	}

	again, created, err := st.GetOrCreate(ctx, a.ID)
	if err != nil || created || again != a {
		t.Fatalf("expected to resume session A")
	}
	if st.Len() != 2 {
		t.Fatalf("Len = %d", st.Len())
	}
}

func TestStoreClosesEvictedSessions(t *testing.T) {
	ctx := context.Background()
	f, closedCount := newCountingFactory()
	st := NewStore(StoreConfig{TTL: time.Hour, MaxSize: 2}, f, nil)

	first, _ := st.Create(ctx)
	st.Create(ctx)
	st.Create(ctx)

	if closedCount() != 1 {
		t.Fatalf("expected one eviction, got %d", closedCount())
	}
	if _, ok := st.Get(first.ID); ok {
		t.Fatalf("oldest session should have been evicted")
	}
	if _, err := first.SubmitSale(ctx, "Falda", "1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("evicted session still accepts sales: %v", err)
	}

	st.Close()
	if closedCount() != 3 || st.Len() != 0 {
		t.Fatalf("Close left sessions: closed=%d len=%d", closedCount(), st.Len())
	}
}

func TestStoreReplacesClosedSession(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC) }

	st := NewStore(StoreConfig{TTL: time.Minute, MaxSize: 10, Location: time.UTC, Now: now}, memory.NewFactory(), nil)
	s, _ := st.Create(ctx)

	if !st.Today().Equal(core.NewDate(2025, time.March, 5)) {
		t.Fatalf("Today = %s", st.Today())
	}

	// A session closed while still cached, e.g. by an expiry sweep racing a request.
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	fresh, created, err := st.GetOrCreate(ctx, s.ID)
	if err != nil || !created {
		t.Fatalf("GetOrCreate: created=%v err=%v", created, err)
	}
	if fresh.ID == s.ID {
		t.Fatalf("closed session was handed out again")
	}
	if _, err := fresh.View(ctx); err != nil {
		t.Fatalf("replacement session unusable: %v", err)
	}
	if _, ok := st.Get(s.ID); ok {
		t.Fatalf("closed session still cached")
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d", st.Len())
	}
}

func TestStoreTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	// 03:00 UTC on Thursday is still Wednesday evening at UTC-6.
	now := func() time.Time { return time.Date(2025, 3, 6, 3, 0, 0, 0, time.UTC) }
	st := NewStore(StoreConfig{TTL: time.Hour, MaxSize: 1, Location: loc, Now: now}, memory.NewFactory(), nil)
	if got := st.Today(); !got.Equal(wednesday) {
		t.Fatalf("Today = %s, want %s", got, wednesday)
	}
}
