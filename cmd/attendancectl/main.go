package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	open := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return app.New(ctx, cfg, logger)
	}

	if err := newRootCmd(open).Execute(); err != nil {
		os.Exit(1)
	}
}
