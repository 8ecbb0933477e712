package main

import (
	"context"
	"log"

	"github.com/recipehub/recipehub/internal/server"
	"github.com/recipehub/recipehub/internal/server/config"
)

func main() {
	cfg := config.LoadConfig()

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("recipehub: %v", err)
	}

	app.Run(ctx)
}
