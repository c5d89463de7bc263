package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/config"
	"tracker/internal/log"
	"tracker/internal/worker"
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
	logger := log.New(log.Config{Level: level, Format: cfg.LogFormat, Component: log.ComponentWorker, Output: os.Stdout})
	log.SetDefault(logger)

	logger.Info("Starting tracker-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped", log.FieldOperation, log.OpShutdown)
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger)

	result, err := factory.CreateStore(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Store cleanup failed", log.FieldError, err)
		}
	}()

	exporter, err := factory.CreateExporter(ctx, backendCfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(result.Store, exporter, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, client)
	})
	return g.Wait()
}
