package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

func main() {
	envErr := cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	level := "info"
	if cfg != nil {
		level = cfg.LogLevel
	}
	logger := cli.SetupLogger(level, log.ComponentWorker)

	if envErr != nil {
		logger.Warn("Ignoring .env file", log.FieldError, envErr)
	}
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}
	if err := run(logger, cfg); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	if !cfg.MirrorEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is required for the mirror worker")
	}
	if !cfg.EventsEnabled() && cfg.ExportSchedule == "" {
		return errors.New("nothing to do: set AMQP_URL, EXPORT_SCHEDULE or both")
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	if !backendCfg.Type.Persistent() {
		return fmt.Errorf("backend %s is not shared with the server, use sqlite or postgres", backendCfg.Type)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	ctx = log.WithLogger(ctx, logger)

	store, err := backend.NewFactory(logger).OpenStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger store", log.FieldError, err)
		}
	}()

	mirror, err := cli.NewSheetsMirror(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create sheets mirror: %w", err)
	}

	w := worker.NewMirrorWorker(store, mirror)

	// A failed first pass is retried by the next event or tick.
	if err := w.Sync(ctx); err != nil {
		logger.Warn("Initial mirror pass failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
			return client.ConsumeEvents(gctx, w.HandleEvent)
		})
	}

	if cfg.ExportSchedule != "" {
		sched, err := worker.NewScheduler(cfg.ExportSchedule, w.Sync)
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Info("Mirror schedule active", "spec", cfg.ExportSchedule)
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Mirror worker finished", "passes", w.Passes())
	return nil
}
