package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wagerly/cmd"
	"wagerly/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "migrate":
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
	case "serve":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cmd.Run(ctx); err != nil {
			log.Fatal("Application error: ", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: wagerly [serve|migrate up|down [steps]|status]\n", command)
		os.Exit(2)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wagerly migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
