package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"burnscope/internal/backend"
	"burnscope/internal/cli"
	"burnscope/internal/core"
	apphttp "burnscope/internal/http"
	"burnscope/internal/log"
	"burnscope/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	// Dataset load, store setup and broker dial are independent.
	var (
		table     *core.Table
		store     *backend.StoreResult
		publisher *backend.PublisherResult
	)
	ctx := log.NewContext(context.Background(), logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		src, err := factory.CreateSource(gctx, bcfg)
		if err != nil {
			return err
		}
		table, err = cli.LoadTable(gctx, src, logger)
		return err
	})
	g.Go(func() error {
		var err error
		store, err = factory.CreateStore(gctx, bcfg)
		return err
	})
	g.Go(func() error {
		var err error
		publisher, err = factory.CreatePublisher(gctx, bcfg)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("Startup failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
		if store != nil {
			_ = store.Cleanup()
		}
		if publisher != nil {
			_ = publisher.Cleanup()
		}
		os.Exit(1)
	}

	if err := store.Store.Replace(ctx, table.Rows); err != nil {
		logger.Error("Failed to fill aggregate store", log.FieldError, err)
		_ = store.Cleanup()
		_ = publisher.Cleanup()
		os.Exit(1)
	}

	dashboard := services.NewDashboardService(table, store.Store, publisher.Publisher, logger)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Dashboard:          dashboard,
		Ready:              store.Ready,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := publisher.Cleanup(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Store close error", log.FieldError, err)
		}
	})

	initial := dashboard.Initial()
	logger.Info("Starting burnscope server",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"source", cfg.DatasetSource,
		log.FieldCountry, initial.Country,
		log.FieldYearFrom, initial.YearFrom,
		log.FieldYearTo, initial.YearTo,
		"amqp_enabled", publisher.Publisher != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
