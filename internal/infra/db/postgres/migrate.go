package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"telegram-exchange-assistant/migrations"
)

// MigrationCommand is one of the goose commands supported by Migrate.
type MigrationCommand string

const (
	MigrateUp      MigrationCommand = "up"
	MigrateDown    MigrationCommand = "down"
	MigrateStatus  MigrationCommand = "status"
	MigrateVersion MigrationCommand = "version"
	MigrateReset   MigrationCommand = "reset" // rolls back every applied migration
)

// Migrate runs the embedded goose migrations against the database at dsn.
func Migrate(ctx context.Context, dsn string, cmd MigrationCommand) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch cmd {
	case MigrateUp:
		return goose.UpContext(ctx, db, ".")
	case MigrateDown:
		return goose.DownContext(ctx, db, ".")
	case MigrateStatus:
		return goose.StatusContext(ctx, db, ".")
	case MigrateReset:
		return goose.ResetContext(ctx, db, ".")
	case MigrateVersion:
		_, err := goose.GetDBVersionContext(ctx, db)
		return err
	default:
		return fmt.Errorf("unknown migration command %q", cmd)
	}
}
