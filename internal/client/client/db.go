package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/qrattend/internal/client/migrations"
	"github.com/dmitrijs2005/qrattend/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local SQLite store at dsn and
// brings its schema up to date. ":memory:" is accepted for tests.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn != ":memory:" {
		abs, err := filex.EnsureParentDir(dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocalDataNotAvailable, err)
		}
		dsn = abs
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalDataNotAvailable, err)
	}
	// One connection keeps ":memory:" databases coherent and serialises writes.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrations: %w", ErrLocalDataNotAvailable, err)
	}
	return db, nil
}
