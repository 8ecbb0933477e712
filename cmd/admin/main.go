package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/recipehub/recipehub/internal/logging"
	"github.com/recipehub/recipehub/internal/server"
	"github.com/recipehub/recipehub/internal/server/admin"
	"github.com/recipehub/recipehub/internal/server/config"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cmd, args, err := admin.SplitCommand(os.Args[1:])
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	c, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	migrate := func(ctx context.Context) (int64, error) { return c.Repos.RunMigrations(ctx, c.DB) }
	return admin.NewTool(migrate, c.Auth, c.Recipes, os.Stdout).Run(ctx, cmd, args)
}
