// Package main provides the main entry point for the nutrition API server
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/alchemorsel/nutrition/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", os.Getenv("NUTRITION_CONFIG"), "path to config file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before configuration")
	flag.Parse()

	// A missing .env is normal outside local development
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load %s: %v", *envFile, err)
	}

	app := fx.New(
		fx.NopLogger, // Use our own logger instead of Fx's
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 15*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for interrupt signal or an internal shutdown request
	select {
	case <-ctx.Done():
	case <-app.Wait():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
}
