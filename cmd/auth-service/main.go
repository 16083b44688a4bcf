package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/app"
	"github.com/arena-gg/esports-platform/services/auth-service/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	if err := application.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
