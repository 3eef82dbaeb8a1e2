// Package database selects and opens the core.Store implementation named by
// DATABASE_URL.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/partsdesk/internal/config"
	"github.com/JonMunkholm/partsdesk/internal/core"
	"github.com/JonMunkholm/partsdesk/internal/database/postgres"
	"github.com/JonMunkholm/partsdesk/internal/database/sqlite"
)

// Open connects to the configured database. PostgreSQL schemas are migrated
// first when cfg.AutoMigrate is set; SQLite schemas are always migrated.
func Open(ctx context.Context, cfg config.DatabaseConfig) (core.Store, error) {
	switch driver := config.DriverFor(cfg.URL); driver {
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := postgres.MigrateUp(cfg.URL); err != nil {
				return nil, err
			}
		}
		store, err := postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "driver", driver)
		return store, nil

	case config.DriverSQLite:
		dsn := sqlite.DSNFromURL(cfg.URL)
		store, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "driver", driver, "path", dsn)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported database URL scheme")
	}
}

// Migrate runs PostgreSQL migrations up or down. SQLite migrates on open, so
// only "up" is accepted for it.
func Migrate(databaseURL string, up bool) error {
	switch config.DriverFor(databaseURL) {
	case config.DriverPostgres:
		if up {
			return postgres.MigrateUp(databaseURL)
		}
		return postgres.MigrateDown(databaseURL)
	case config.DriverSQLite:
		if !up {
			return fmt.Errorf("sqlite databases cannot be migrated down; delete the file instead")
		}
		store, err := sqlite.Open(sqlite.DSNFromURL(databaseURL))
		if err != nil {
			return err
		}
		return store.Close()
	}
	return fmt.Errorf("unsupported database URL scheme")
}
