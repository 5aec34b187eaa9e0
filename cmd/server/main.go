package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"campfire/internal/config"
	"campfire/internal/server"
	"campfire/internal/storage/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		logger.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	app := server.NewApp(cfg, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("server shutdown", "error", err)
		os.Exit(1)
	}
}
