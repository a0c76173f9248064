package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

const (
	sqliteDialect = "sqlite3"
	dir           = "sql"
)

//go:embed sql/*.sql
var files embed.FS

// Up runs all pending embedded SQL migrations. A nil logger keeps goose quiet.
func Up(ctx context.Context, db *sql.DB, logger goose.Logger) error {
	goose.SetBaseFS(files)
	if logger == nil {
		logger = goose.NopLogger()
	}
	goose.SetLogger(logger)

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}
