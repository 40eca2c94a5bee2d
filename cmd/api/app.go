package main

import (
	"context"
	"fmt"

	"github.com/abduss/modelvault/internal/config"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/abduss/modelvault/internal/migrate"
	"go.uber.org/zap"
)

// bootstrap loads configuration and builds the process logger.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}

func runMigrations(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := migrate.Open(cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := migrate.Up(ctx, db, log)
	if err != nil {
		return err
	}
	log.Info("schema up to date", zap.Int("applied", n))
	return nil
}
