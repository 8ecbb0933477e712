// Package repomanager vends the PostgreSQL repositories and applies the
// embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/server/migrations"
	"github.com/recipehub/recipehub/internal/server/repositories/categories"
	"github.com/recipehub/recipehub/internal/server/repositories/recipes"
	"github.com/recipehub/recipehub/internal/server/repositories/users"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Categories(db dbx.DBTX) categories.Repository {
	return categories.NewPostgresRepository(db)
}

// goose entry points, replaced in tests.
var (
	gooseUp      = func(ctx context.Context, db *sql.DB) error { return goose.UpContext(ctx, db, ".") }
	gooseVersion = goose.GetDBVersionContext
)

// RunMigrations applies every pending migration and returns the resulting
// schema version.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return 0, fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUp(ctx, db); err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}

	v, err := gooseVersion(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}
