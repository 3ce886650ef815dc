package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/articles"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// constructors serve both the pool and a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Articles(db dbx.DBTX) articles.Repository
}
