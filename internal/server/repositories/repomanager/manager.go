package repomanager

import (
	"context"
	"database/sql"

	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/server/repositories/categories"
	"github.com/recipehub/recipehub/internal/server/repositories/recipes"
	"github.com/recipehub/recipehub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository against the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) (int64, error)
	Users(db dbx.DBTX) users.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	Categories(db dbx.DBTX) categories.Repository
}
