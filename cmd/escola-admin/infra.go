package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/escolafut/escola-api/config"
	"github.com/escolafut/escola-api/internal/bootstrap"
)

// connectDB opens the Postgres pool used by the account and maintenance commands.
func connectDB(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}
