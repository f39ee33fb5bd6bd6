package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"

	_ "modernc.org/sqlite"
)

// recordedAtLayout is fixed-width so that text ordering matches time ordering.
const recordedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	_ ledger.Store  = (*SQLiteRepository)(nil)
	_ ledger.Pinger = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if IsInMemoryPath(dbPath) {
		return nil, fmt.Errorf("%w: %q", ErrInMemoryDatabase, dbPath)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite would serialize anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements ledger.Store
func (r *SQLiteRepository) Create(ctx context.Context, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}
	draft := nt.Build(0, r.now().UTC())

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        string(draft.Kind),
		AmountCents: draft.Amount.Cents,
		Category:    draft.Category,
		Description: draft.Description,
		OccurredOn:  draft.OccurredOn.String(),
		RecordedAt:  draft.RecordedAt.Format(recordedAtLayout),
	})
	if err != nil {
		return core.Transaction{}, core.Storage("create transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"kind", row.Kind,
		"amount_cents", row.AmountCents,
		"category", row.Category,
		"occurred_on", row.OccurredOn)

	return row.toCore()
}

// Get implements ledger.Store
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound(id)
	}
	if err != nil {
		return core.Transaction{}, core.Storage("get transaction", err)
	}
	return row.toCore()
}

// List implements ledger.Store
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]core.Transaction, error) {
	bound := int64(limit)
	if limit <= 0 {
		bound = -1
	}
	rows, err := r.queries.ListTransactions(ctx, bound)
	if err != nil {
		return nil, core.Storage("list transactions", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toCore()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// Update implements ledger.Store
func (r *SQLiteRepository) Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	arg := UpdateTransactionParams{ID: id}
	if p.Kind != nil {
		arg.Kind = sql.NullString{String: string(*p.Kind), Valid: true}
	}
	if p.Amount != nil {
		arg.AmountCents = sql.NullInt64{Int64: p.Amount.Cents, Valid: true}
	}
	if p.Category != nil {
		arg.Category = sql.NullString{String: *p.Category, Valid: true}
	}
	if p.Description != nil {
		arg.Description = sql.NullString{String: *p.Description, Valid: true}
	}
	if p.OccurredOn != nil {
		arg.OccurredOn = sql.NullString{String: p.OccurredOn.String(), Valid: true}
	}

	row, err := r.queries.UpdateTransaction(ctx, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound(id)
	}
	if err != nil {
		return core.Transaction{}, core.Storage("update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", id)
	return row.toCore()
}

// Delete implements ledger.Store
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return false, core.Storage("delete transaction", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	}
	return n > 0, nil
}

func (t Transaction) toCore() (core.Transaction, error) {
	occurred, err := core.ParseDate(t.OccurredOn)
	if err != nil {
		return core.Transaction{}, core.Storage("decode occurred_on", err)
	}
	recorded, err := time.Parse(recordedAtLayout, t.RecordedAt)
	if err != nil {
		return core.Transaction{}, core.Storage("decode recorded_at", err)
	}
	return core.Transaction{
		ID:          t.ID,
		Kind:        core.Kind(t.Kind),
		Amount:      core.Money{Cents: t.AmountCents},
		Category:    t.Category,
		Description: t.Description,
		OccurredOn:  occurred,
		RecordedAt:  recorded.UTC(),
	}, nil
}
