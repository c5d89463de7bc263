package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/auth"
	"tracker/internal/backend"
	"tracker/internal/config"
	apphttp "tracker/internal/http"
	"tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	boot := log.New(log.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		boot.Error("Failed to load configuration", log.FieldError, err)
		os.Exit(1)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		boot.Error("Invalid log level", log.FieldError, err)
		os.Exit(1)
	}
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: log.ComponentApp, Output: os.Stdout})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Store cleanup failed", log.FieldError, err)
		}
	}()

	// Event publishing is optional; without a broker writes are simply not announced.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
		}
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenExpiry())
	if err != nil {
		return err
	}
	authService, err := services.NewAuthService(result.Store, auth.NewPasswordHasher(cfg.BcryptCost), tokens, logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		CORSOrigins:        cfg.CORSOriginList(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Auth:         authService,
		Transactions: services.NewTransactionService(result.Store, publisher, logger),
		Summaries:    services.NewSummaryService(result.Store, logger),
		Resolver:     auth.NewResolver(tokens, result.Store),
		Store:        result.Store,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server",
			"addr", cfg.Addr(),
			"backend", cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
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
		return err
	}
	logger.Info("Server stopped")
	return nil
}
