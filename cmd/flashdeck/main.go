// Package main is the entrypoint for the flashdeck command-line client.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kiranshivaraju/flashdeck/cmd/flashdeck/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	// Flags read FLASHDECK_* from the environment, so .env must be loaded first.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	if err := commands.NewApp().Run(ctx, os.Args); err != nil {
		slog.Error("flashdeck failed", "error", err)
		os.Exit(1)
	}
}
