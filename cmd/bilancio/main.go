package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/backend"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
)

func main() {
	envErr := cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	level := "info"
	if cfg != nil {
		level = cfg.LogLevel
	}
	logger := cli.SetupLogger(level, log.ComponentApp)

	if envErr != nil {
		logger.Warn("Ignoring .env file", log.FieldError, envErr)
	}
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	svc, err := backend.NewFactory(logger).NewLedgerService(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RecentLimit:     cfg.RecentLimit,
		WritesPerMinute: cfg.WritesPerMinute,
		Logger:          logger.WithComponent(log.ComponentHTTP),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting bilancio server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	m := srv.Metrics()
	logger.Info("Server stopped gracefully",
		"requests", m.TotalRequests,
		"server_errors", m.ServerErrors,
		"rejected_writes", srv.RejectedWrites())
}
