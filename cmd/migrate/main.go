package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
)

const usage = `Usage: migrate [command] [args]

Commands (default "up"):
  up, up-by-one, up-to VERSION  apply migrations
  down, down-to VERSION         roll back
  redo, reset                   reapply the latest / roll back everything
  status, version               inspect the interactions journal schema
  create NAME                   create a new SQL migration`

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using existing environment variables")
	}

	command := "up"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Println(usage)
		return
	}

	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&max_execution_time=60",
		getEnv("CLICKHOUSE_USER", "default"),
		getEnv("CLICKHOUSE_PASSWORD", ""),
		getEnv("CLICKHOUSE_HOST", "localhost"),
		getEnv("CLICKHOUSE_PORT", "9000"),
		getEnv("CLICKHOUSE_DATABASE", "default"),
	)
	if getEnv("CLICKHOUSE_USE_TLS", "false") == "true" {
		dsn += "&secure=true"
	}

	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Connected to ClickHouse successfully")

	if err := goose.SetDialect("clickhouse"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	dir := getEnv("MIGRATIONS_DIR", "./migrations")
	if command == "create" && len(args) == 1 {
		// Always SQL: the journal schema has no Go migrations
		args = append(args, "sql")
	}

	log.Printf("Running migrations: %s", command)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		log.Fatalf("migrate %s: %v\n\n%s", command, err, usage)
	}
	log.Printf("migrate %s completed", command)
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
