package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations brings the schema up to date from the embedded migration
// files. A nil handle means the process runs without Postgres and there is
// nothing to migrate.
func RunMigrations(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return nil
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, "migrations")
}
