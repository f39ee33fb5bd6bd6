package storage

import (
	"context"
	"database/sql"
)

const transactionColumns = `id, kind, amount_cents, category, description, occurred_on, recorded_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.AmountCents,
		&i.Category,
		&i.Description,
		&i.OccurredOn,
		&i.RecordedAt,
	)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (kind, amount_cents, category, description, occurred_on, recorded_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

type CreateTransactionParams struct {
	Kind        string
	AmountCents int64
	Category    string
	Description string
	OccurredOn  string
	RecordedAt  string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Kind,
		arg.AmountCents,
		arg.Category,
		arg.Description,
		arg.OccurredOn,
		arg.RecordedAt,
	)
	return scanTransaction(row)
}

const getTransaction = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	return scanTransaction(row)
}

// A negative LIMIT means no limit in SQLite.
const listTransactions = `
SELECT ` + transactionColumns + `
FROM transactions
ORDER BY occurred_on DESC, recorded_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListTransactions(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Every mutable column is listed once; a NULL parameter keeps the stored value.
const updateTransaction = `
UPDATE transactions SET
    kind         = COALESCE(?, kind),
    amount_cents = COALESCE(?, amount_cents),
    category     = COALESCE(?, category),
    description  = COALESCE(?, description),
    occurred_on  = COALESCE(?, occurred_on)
WHERE id = ?
RETURNING ` + transactionColumns

type UpdateTransactionParams struct {
	Kind        sql.NullString
	AmountCents sql.NullInt64
	Category    sql.NullString
	Description sql.NullString
	OccurredOn  sql.NullString
	ID          int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, updateTransaction,
		arg.Kind,
		arg.AmountCents,
		arg.Category,
		arg.Description,
		arg.OccurredOn,
		arg.ID,
	)
	return scanTransaction(row)
}

const deleteTransaction = `
DELETE FROM transactions
WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
