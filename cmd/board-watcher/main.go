package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-board-client/internal/app"
	"github.com/samvad-hq/samvad-board-client/internal/config"
	"github.com/samvad-hq/samvad-board-client/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "board watcher start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("board watcher starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := app.NewWatcher(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize board watcher", "error", err)
		return err
	}

	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("board watcher run: %w", err)
	}

	return nil
}
