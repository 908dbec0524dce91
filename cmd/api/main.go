package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/comitanigiacomo/blocktracker-engine/internal/app"
	"github.com/comitanigiacomo/blocktracker-engine/internal/config"
)

func main() {
	cfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		log.Fatalf("Critical: Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}
	defer a.Close()

	log.Println("Database connected successfully.")

	if err := a.Serve(ctx); err != nil {
		log.Printf("Critical server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}
