package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// EventPublisher announces ledger mutations to other processes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
	Close() error
}

// Dashboard is the landing view: the most recent transactions and the
// summary over the whole ledger.
type Dashboard struct {
	Recent  []core.Transaction
	Summary core.Summary
}

// LedgerService serializes access to a ledger store, derives summaries from
// it, and publishes change events.
type LedgerService struct {
	mu         sync.Mutex
	store      ledger.Store
	aggregator *ledger.Aggregator
	publisher  EventPublisher
}

// NewLedgerService wires a store with an optional publisher (nil disables
// events).
func NewLedgerService(store ledger.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:      store,
		aggregator: ledger.NewAggregator(store),
		publisher:  publisher,
	}
}

// CreateTransaction persists nt and announces it.
func (s *LedgerService) CreateTransaction(ctx context.Context, nt core.NewTransaction) (core.Transaction, error) {
	s.mu.Lock()
	t, err := s.store.Create(ctx, nt)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, t.ID, amqp.OpCreated)
	return t, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns at most limit records in ledger order; limit <= 0
// returns all.
func (s *LedgerService) ListTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, p core.Patch) (core.Transaction, error) {
	s.mu.Lock()
	t, err := s.store.Update(ctx, id, p)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, id, amqp.OpUpdated)
	return t, nil
}

// DeleteTransaction reports whether the record existed. Deleting a missing id
// is not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	deleted, err := s.store.Delete(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}

	if deleted {
		s.publish(ctx, id, amqp.OpDeleted)
	}
	return deleted, nil
}

func (s *LedgerService) Summarize(ctx context.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.Summarize(ctx)
}

func (s *LedgerService) SummarizeByCategory(ctx context.Context) (core.CategorySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregator.SummarizeByCategory(ctx)
}

// Dashboard reads the recent list and the summary under one lock so both
// reflect the same ledger state.
func (s *LedgerService) Dashboard(ctx context.Context, recent int) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.store.List(ctx, recent)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard recent: %w", err)
	}
	sum, err := s.aggregator.Summarize(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return Dashboard{Recent: txs, Summary: sum}, nil
}

// Ping checks the store connection when the store supports it.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(ledger.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, id int64, op amqp.EventOp) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "id", id, "op", op)
		return
	}

	// The write already succeeded; a lost event only delays the mirror.
	if err := s.publisher.PublishEvent(ctx, amqp.NewLedgerEvent(id, op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", id, "op", op, "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
