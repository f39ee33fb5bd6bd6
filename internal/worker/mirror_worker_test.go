package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export/sheets"
	"bilancio/internal/ledger/memory"
)

type fakeMirror struct {
	mu    sync.Mutex
	snaps []sheets.Snapshot
	err   error
}

func (f *fakeMirror) Mirror(_ context.Context, snap sheets.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeMirror) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snaps)
}

func (f *fakeMirror) last() sheets.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snaps[len(f.snaps)-1]
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for _, nt := range []core.NewTransaction{
		{Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary", OccurredOn: core.NewDate(2024, 1, 1)},
		{Kind: core.Expense, Amount: core.Money{Cents: 30000}, Category: "Rent", OccurredOn: core.NewDate(2024, 1, 2)},
	} {
		if _, err := store.Create(ctx, nt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestMirrorWorker_SyncWritesFullSnapshot(t *testing.T) {
	store := memory.New()
	seed(t, store)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	snap := mirror.last()
	if len(snap.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(snap.Transactions))
	}
	if snap.Transactions[0].Category != "Rent" {
		t.Errorf("expected newest first, got %q", snap.Transactions[0].Category)
	}
	if snap.Summary.NetBalance.Cents != 70000 {
		t.Errorf("net balance = %d, want 70000", snap.Summary.NetBalance.Cents)
	}
	if len(snap.Categories.Income) != 1 || len(snap.Categories.Expense) != 1 {
		t.Errorf("unexpected category summary %+v", snap.Categories)
	}
	if w.Passes() != 1 {
		t.Errorf("Passes = %d, want 1", w.Passes())
	}
}

func TestMirrorWorker_HandleEvent(t *testing.T) {
	store := memory.New()
	seed(t, store)
	mirror := &fakeMirror{}
	w := NewMirrorWorker(store, mirror)
	ctx := context.Background()

	old := amqp.NewLedgerEvent(1, amqp.OpCreated)
	old.Timestamp = time.Now().Add(-time.Hour)

	// First event always syncs.
	if err := w.HandleEvent(ctx, old); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if mirror.count() != 1 {
		t.Fatalf("expected 1 mirror pass, got %d", mirror.count())
	}

	// Same event again predates the last pass.
	if err := w.HandleEvent(ctx, old); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if mirror.count() != 1 {
		t.Errorf("expected stale event to be skipped, got %d passes", mirror.count())
	}

	fresh := amqp.NewLedgerEvent(2, amqp.OpUpdated)
	fresh.Timestamp = time.Now().Add(time.Second)
	if err := w.HandleEvent(ctx, fresh); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if mirror.count() != 2 {
		t.Errorf("expected fresh event to sync, got %d passes", mirror.count())
	}
}

func TestMirrorWorker_ToleratesPublisherClockBehind(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(memory.New(), mirror)
	passStart := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return passStart }
	ctx := context.Background()

	if err := w.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"published after the pass on a slow clock", -2 * time.Second, 2},
		{"published long before the pass", -time.Minute, 2},
		{"published after the pass", time.Second, 3},
	}
	for _, tt := range tests {
		ev := amqp.NewLedgerEvent(1, amqp.OpUpdated)
		ev.Timestamp = passStart.Add(tt.offset)
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("%s: HandleEvent: %v", tt.name, err)
		}
		if got := mirror.count(); got != tt.want {
			t.Errorf("%s: passes = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMirrorWorker_MirrorErrorIsReturned(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(memory.New(), mirror)

	err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(1, amqp.OpDeleted))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, mirror.err) {
		t.Errorf("expected wrapped mirror error, got %v", err)
	}
	if w.Passes() != 0 {
		t.Errorf("failed pass should not count, got %d", w.Passes())
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler("every day", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler("0 3 * * *", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	want := time.Date(2024, 5, 2, 3, 0, 0, 0, time.Local)
	if got := s.Next(from); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}
}

func TestScheduler_RunFiresAndStops(t *testing.T) {
	fired := make(chan struct{}, 10)
	s, err := NewScheduler("@every 1s", func(context.Context) error {
		fired <- struct{}{}
		return errors.New("logged, not fatal")
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job never fired")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
