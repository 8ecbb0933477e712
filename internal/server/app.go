// Package server initializes and runs the RecipeHub API process.
// It builds the service graph, applies database migrations, starts the HTTP
// server (and optionally the gRPC health server) and handles graceful
// shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server/config"
	"github.com/recipehub/recipehub/internal/server/httpapi"
	"github.com/recipehub/recipehub/internal/server/sessions"

	gs "github.com/recipehub/recipehub/internal/server/grpc"
)

const (
	sessionSweepInterval = time.Minute
	healthRefresh        = 15 * time.Second
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	components *Components
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	comp, err := Build(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	version, err := comp.Repos.RunMigrations(ctx, comp.DB)
	if err != nil {
		_ = comp.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	logger.Info(ctx, "database migrated", "version", version)

	return &App{config: c, logger: logger, components: comp}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	c := app.components
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, httpapi.Deps{
		Auth:        c.Auth,
		Users:       c.Users,
		Recipes:     c.Recipes,
		Uploads:     c.Uploads,
		Tokens:      c.Tokens,
		Health:      c.Health,
		UploadDir:   c.UploadDir(),
		MaxFileSize: app.config.MaxFileSize,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPCHealth, app.logger, app.components.Health, healthRefresh)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPCHealth != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCHealthServer(ctx, cancelFunc)
		}()
	}

	if ms, ok := app.components.Sessions.(*sessions.MemoryStore); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ms.RunSweeper(ctx, sessionSweepInterval)
		}()
	}

	wg.Wait()

	if err := app.components.Close(); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
