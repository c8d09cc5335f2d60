package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"pubgame-service/internal/config"
	pgmigrations "pubgame-service/internal/infra/postgres/migrations"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	return applyMigrations(ctx, cfg.Postgres.URL)
}

// applyMigrations brings the packs schema up to date. The server also calls
// this on startup when Postgres is configured, so a fresh database works
// without a separate migrate step.
func applyMigrations(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if group.IsZero() {
		log.Printf("database schema up to date")
	} else {
		log.Printf("migrated to %s", group)
	}
	return nil
}
