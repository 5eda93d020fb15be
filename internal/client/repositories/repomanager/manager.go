// Package repomanager vends the record store repositories and applies the
// record store schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/posts"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/blogkeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/blogkeeper/internal/dbx"
)

// RepositoryManager binds repositories to a handle, so the same code runs
// against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Posts(db dbx.DBTX) posts.Repository
}
