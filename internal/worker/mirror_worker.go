// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/export/sheets"
	"bilancio/internal/ledger"
)

// clockSkew is how far the publishing process's clock may trail ours before
// an event is mistaken for one the last pass already covered.
const clockSkew = 5 * time.Second

// Mirror receives a full copy of the ledger.
type Mirror interface {
	Mirror(ctx context.Context, snap sheets.Snapshot) error
}

// MirrorWorker rewrites the mirror from the store. Every pass writes the
// whole ledger, so a lost or duplicated event is repaired by the next one.
type MirrorWorker struct {
	store  ledger.Store
	mirror Mirror
	now    func() time.Time

	mu       sync.Mutex
	lastSync time.Time
	passes   int
}

func NewMirrorWorker(store ledger.Store, mirror Mirror) *MirrorWorker {
	return &MirrorWorker{store: store, mirror: mirror, now: time.Now}
}

// HandleEvent is the AMQP consumer callback.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event", "id", ev.ID, "op", ev.Op)

	// Events queued before the last pass started are already reflected.
	// Timestamps come from another process, hence the skew margin.
	w.mu.Lock()
	stale := !w.lastSync.IsZero() && ev.Timestamp.Before(w.lastSync.Add(-clockSkew))
	w.mu.Unlock()
	if stale {
		slog.DebugContext(ctx, "Ledger event already mirrored", "id", ev.ID, "op", ev.Op)
		return nil
	}

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("mirror after %s of %d: %w", ev.Op, ev.ID, err)
	}
	return nil
}

// Sync reads the full ledger and writes it to the mirror.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := w.now()
	txs, err := w.store.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	snap := sheets.Snapshot{
		Transactions: txs,
		Summary:      core.Summarize(txs),
		Categories:   core.SummarizeByCategory(txs),
	}
	if err := w.mirror.Mirror(ctx, snap); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}

	w.lastSync = started
	w.passes++

	slog.InfoContext(ctx, "Mirror synchronized",
		"rows", len(txs),
		"net_balance", snap.Summary.NetBalance.String(),
		"duration_ms", w.now().Sub(started).Milliseconds())
	return nil
}

// Passes reports how many mirror passes completed.
func (w *MirrorWorker) Passes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passes
}
