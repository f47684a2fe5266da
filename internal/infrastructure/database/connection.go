package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Database drivers for the two supported cache backends.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/vocadrill/internal/infrastructure/config"
)

// NewConnection opens the progress cache database for the configured
// driver and verifies it is reachable.
func NewConnection(cfg *config.Config) (*sqlx.DB, func(), error) {
	driver := cfg.DatabaseDriver()
	name := driver
	if driver == "postgres" {
		// pgx registers its database/sql driver as "pgx".
		name = "pgx"
	} else if driver != "sqlite3" {
		return nil, nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sqlx.Open(name, cfg.DatabaseURL())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}

	cleanup := func() { _ = db.Close() }
	return db, cleanup, nil
}
