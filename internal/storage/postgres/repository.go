// Package postgres stores the ledger in a PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	_ ledger.Store  = (*Repository)(nil)
	_ ledger.Pinger = (*Repository)(nil)
)

// Repository provides ledger operations on PostgreSQL
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository connects to dsn and brings the schema up to date
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db, now: time.Now}, nil
}

// runMigrations uses a pool of its own: the migrator pins a connection and
// closes its handle when done.
func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create postgres driver: %w", err)
	}
	return storage.Apply(migrationsFS, "postgres", driver)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const returning = `RETURNING id, kind, amount_cents, category, description, occurred_on, recorded_at`

// Create inserts a new transaction
func (r *Repository) Create(ctx context.Context, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}
	// TIMESTAMPTZ keeps microseconds.
	draft := nt.Build(0, r.now().UTC().Truncate(time.Microsecond))

	query := `
		INSERT INTO transactions (kind, amount_cents, category, description, occurred_on, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		` + returning
	t, err := scan(r.db.QueryRowContext(ctx, query,
		string(draft.Kind), draft.Amount.Cents, draft.Category, draft.Description,
		draft.OccurredOn.String(), draft.RecordedAt))
	if err != nil {
		return core.Transaction{}, core.Storage("create transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved to PostgreSQL",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t, nil
}

// Get retrieves a transaction by ID
func (r *Repository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	query := `
		SELECT id, kind, amount_cents, category, description, occurred_on, recorded_at
		FROM transactions
		WHERE id = $1`
	t, err := scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound(id)
	}
	if err != nil {
		return core.Transaction{}, core.Storage("get transaction", err)
	}
	return t, nil
}

// List returns transactions in ledger order; LIMIT NULL means all rows
func (r *Repository) List(ctx context.Context, limit int) ([]core.Transaction, error) {
	var bound sql.NullInt64
	if limit > 0 {
		bound = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	query := `
		SELECT id, kind, amount_cents, category, description, occurred_on, recorded_at
		FROM transactions
		ORDER BY occurred_on DESC, recorded_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, bound)
	if err != nil {
		return nil, core.Storage("list transactions", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, core.Storage("scan transaction", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Storage("list transactions", err)
	}
	return txs, nil
}

// Update applies a sparse patch in one statement
func (r *Repository) Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var (
		kind, category, description, occurred sql.NullString
		amount                                 sql.NullInt64
	)
	if p.Kind != nil {
		kind = sql.NullString{String: string(*p.Kind), Valid: true}
	}
	if p.Amount != nil {
		amount = sql.NullInt64{Int64: p.Amount.Cents, Valid: true}
	}
	if p.Category != nil {
		category = sql.NullString{String: *p.Category, Valid: true}
	}
	if p.Description != nil {
		description = sql.NullString{String: *p.Description, Valid: true}
	}
	if p.OccurredOn != nil {
		occurred = sql.NullString{String: p.OccurredOn.String(), Valid: true}
	}

	query := `
		UPDATE transactions SET
			kind         = COALESCE($1::text, kind),
			amount_cents = COALESCE($2::bigint, amount_cents),
			category     = COALESCE($3::text, category),
			description  = COALESCE($4::text, description),
			occurred_on  = COALESCE($5::date, occurred_on)
		WHERE id = $6
		` + returning
	t, err := scan(r.db.QueryRowContext(ctx, query, kind, amount, category, description, occurred, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound(id)
	}
	if err != nil {
		return core.Transaction{}, core.Storage("update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated in PostgreSQL", "id", id)
	return t, nil
}

// Delete removes a transaction permanently
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return false, core.Storage("delete transaction", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, core.Storage("delete transaction", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Transaction deleted from PostgreSQL", "id", id)
	}
	return n > 0, nil
}

func scan(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t        core.Transaction
		kind     string
		occurred time.Time
	)
	err := row.Scan(&t.ID, &kind, &t.Amount.Cents, &t.Category, &t.Description, &occurred, &t.RecordedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.OccurredOn = core.DateOf(occurred)
	t.RecordedAt = t.RecordedAt.UTC()
	return t, nil
}
