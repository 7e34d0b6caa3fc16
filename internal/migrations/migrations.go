// Package migrations embeds the goose migrations of the local SQLite
// database and of the remote Postgres photo_metadata table.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// RunSQLite applies the local database migrations. Safe to call on every
// start.
func RunSQLite(ctx context.Context, db *sql.DB) error {
	return run(ctx, db, goose.DialectSQLite3, "sqlite")
}

// RunPostgres applies the remote table migrations.
func RunPostgres(ctx context.Context, db *sql.DB) error {
	return run(ctx, db, goose.DialectPostgres, "postgres")
}

func run(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(Migrations, dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create %s migration provider: %w", dir, err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply %s migrations: %w", dir, err)
	}
	return nil
}
