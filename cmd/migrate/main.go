package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"telegram-exchange-assistant/internal/infra/db/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found, using existing environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	command := postgres.MigrateUp
	if len(os.Args) > 1 {
		command = postgres.MigrationCommand(os.Args[1])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Printf("running migrations: %s", command)
	if err := postgres.Migrate(ctx, dsn, command); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
	log.Println("done")
}
