package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/blogkeeper/internal/client/migrations/local"
	"github.com/dmitrijs2005/blogkeeper/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// RunMigrations applies the embedded on-device migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(local.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitLocalDatabase opens (creating if needed) the sqlite file at path and
// brings its schema up to date.
func InitLocalDatabase(ctx context.Context, path string) (*sql.DB, error) {
	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", abs)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
