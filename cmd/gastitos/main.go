package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"gastitos/internal/cli"
	"gastitos/internal/form"
	apphttp "gastitos/internal/http"
	"gastitos/internal/ledger"
	applog "gastitos/internal/log"
	"gastitos/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	publisher := cli.InitPublisher(logger, cfg)
	svc := services.NewTransactionService(store, publisher, logger.WithComponent(applog.ComponentService).Slog())

	workflow := form.NewWorkflow(svc, ledger.New(), logger.WithComponent(applog.ComponentWorkflow).Slog())
	if err := workflow.Load(context.Background()); err != nil {
		// The store retries on the next request; start with an empty list.
		logger.Error("Failed to load transactions",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpLoad,
			applog.FieldErrorType, applog.ErrorTypeDatabase)
	} else {
		logger.Info("Transactions loaded", "count", workflow.Ledger().Len())
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:              ":" + cfg.Port,
		Workflow:          workflow,
		Transactions:      svc,
		Logger:            logger,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close transaction service", applog.FieldError, err)
		}
	})

	logger.Info("Starting gastitos server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "db_path", cfg.SQLiteDBPath, "amqp", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = svc.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
