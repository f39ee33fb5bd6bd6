// Package backend builds the ledger store and service selected by
// configuration.
package backend

import (
	"context"
	"fmt"

	"bilancio/internal/amqp"
	"bilancio/internal/ledger"
	"bilancio/internal/ledger/memory"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
	"bilancio/internal/storage/postgres"
)

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// OpenStore opens the store for cfg.Type. The caller owns the result and
// must Close it.
func (f *Factory) OpenStore(ctx context.Context, cfg Config) (ledger.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize PostgreSQL repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized PostgreSQL backend")
		return repo, nil

	default:
		f.logger.WarnContext(ctx, "Using in-memory backend; data is lost on restart")
		return memory.New(), nil
	}
}

// NewLedgerService opens the store and, when AMQP is configured, the event
// publisher. A broker that cannot be reached disables events instead of
// failing startup.
func (f *Factory) NewLedgerService(ctx context.Context, cfg Config) (*services.LedgerService, error) {
	store, err := f.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AMQPURL == "" {
		return services.NewLedgerService(store, nil), nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events",
			log.FieldError, err)
		return services.NewLedgerService(store, nil), nil
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return services.NewLedgerService(store, client), nil
}
