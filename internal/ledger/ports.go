package ledger

import (
	"context"

	"bilancio/internal/core"
)

// Ports for the ledger storage adapters.
type (
	// Store is the authoritative collection of transactions.
	Store interface {
		// Create validates nt, assigns an ID and a recording timestamp, and
		// persists it.
		Create(ctx context.Context, nt core.NewTransaction) (core.Transaction, error)
		// Get returns core.ErrNotFound when id does not exist.
		Get(ctx context.Context, id int64) (core.Transaction, error)
		// List returns transactions in ledger order (see core.Less). A limit
		// of zero or less returns every record.
		List(ctx context.Context, limit int) ([]core.Transaction, error)
		// Update applies p to the record with id and returns the result.
		Update(ctx context.Context, id int64, p core.Patch) (core.Transaction, error)
		// Delete reports whether a record existed and was removed.
		Delete(ctx context.Context, id int64) (bool, error)
		Close() error
	}

	// Pinger is implemented by stores backed by a database connection.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
