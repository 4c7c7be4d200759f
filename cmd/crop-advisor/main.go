package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/i474232898/crop-advisory/internal/cli"
	"github.com/i474232898/crop-advisory/internal/config"
	"github.com/i474232898/crop-advisory/internal/logging"
	"github.com/i474232898/crop-advisory/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.EnvFileLoaded {
		logger.Debug("loaded .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}

	root := cli.NewRootCmd(&cli.App{
		Planner:         srv.Planner,
		Diseases:        srv.Diseases,
		Serve:           srv.Run,
		DefaultLanguage: cfg.AnalysisLanguage,
	})
	return root.ExecuteContext(ctx)
}
