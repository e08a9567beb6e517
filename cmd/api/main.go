package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Apurer/restaurant-orders/internal/app/api"
	"github.com/Apurer/restaurant-orders/internal/app/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := api.Run(ctx, cfg); err != nil {
		log.Fatalf("ordering API failed: %v", err)
	}
}
