package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/recipehub/recipehub/internal/dbx"
	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/auth"
	"github.com/recipehub/recipehub/internal/server/config"
	"github.com/recipehub/recipehub/internal/server/health"
	"github.com/recipehub/recipehub/internal/server/repositories/repomanager"
	"github.com/recipehub/recipehub/internal/server/services"
	"github.com/recipehub/recipehub/internal/server/sessions"
	"github.com/recipehub/recipehub/internal/server/storage"
)

const healthTimeout = 2 * time.Second

// Components is the service graph shared by the API server and the admin
// tool.
type Components struct {
	DB       *sql.DB
	Repos    repomanager.RepositoryManager
	Sessions sessions.Store
	Storage  storage.Storage
	Tokens   *auth.TokenIssuer
	Auth     *services.AuthService
	Users    *services.UserService
	Recipes  *services.RecipeService
	Uploads  *services.UploadService
	Health   *health.Checker

	closers []func() error
}

// openDB and openRedis are seams for tests.
var (
	openDB    = dbx.Open
	openRedis = func(ctx context.Context, url string) (sessions.Store, func() error, error) {
		s, err := sessions.NewRedisStoreFromURL(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
)

// Build opens the database, the session store and the file storage and
// wires the services on top of them. Close releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Components, error) {
	c := &Components{Repos: repomanager.NewPostgresRepositoryManager()}

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	if cfg.RedisURL != "" {
		store, closeFn, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		c.Sessions = store
		c.closers = append(c.closers, closeFn)
	} else {
		logger.Warn(ctx, "REDIS_URL is not set, sessions are kept in memory")
		c.Sessions = sessions.NewMemoryStore()
	}

	st, err := storage.New(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	c.Storage = st

	c.Tokens = auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	})

	c.Auth = services.NewAuthService(c.Repos.Users(db), auth.NewHasher(auth.DefaultCost), c.Tokens, c.Sessions, cfg, logger.With("module", "auth"))
	c.Uploads = services.NewUploadService(st, cfg, logger.With("module", "upload"))
	c.Users = services.NewUserService(db, c.Repos, c.Uploads, logger.With("module", "users"))
	c.Recipes = services.NewRecipeService(db, c.Repos, logger.With("module", "recipes"))

	c.Health = health.NewChecker(healthTimeout).
		Add("database", health.PingFunc(db.PingContext)).
		Add("redis", c.Sessions)

	return c, nil
}

// UploadDir is the directory served under /uploads, or "" for remote storage.
func (c *Components) UploadDir() string {
	if ls, ok := c.Storage.(*storage.LocalStorage); ok {
		return ls.Dir()
	}
	return ""
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
