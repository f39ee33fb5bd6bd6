package ledger

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// Aggregator derives summaries from the full contents of a Store. It keeps no
// state between calls.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize returns totals and counts per kind over every stored transaction.
func (a *Aggregator) Summarize(ctx context.Context) (core.Summary, error) {
	txs, err := a.store.List(ctx, 0)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return core.Summarize(txs), nil
}

// SummarizeByCategory returns per-(kind, category) totals over every stored
// transaction.
func (a *Aggregator) SummarizeByCategory(ctx context.Context) (core.CategorySummary, error) {
	txs, err := a.store.List(ctx, 0)
	if err != nil {
		return core.CategorySummary{}, fmt.Errorf("summarize by category: %w", err)
	}
	return core.SummarizeByCategory(txs), nil
}
