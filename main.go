package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ByGamer01/DamnBruh/cmd"
	"github.com/ByGamer01/DamnBruh/config"
	"github.com/ByGamer01/DamnBruh/database"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Normal server operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: damnbruh migrate [up|down|status] [args...]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(cfg.DatabaseURL)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(cfg.DatabaseURL, steps)
	case "status":
		return database.MigrateStatus(cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
