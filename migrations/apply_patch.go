// Applies the inventory schema to the database named by DATABASE_URL.
//
// Usage: go run migrations/apply_patch.go [sql-file]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	path := "migrations/001_inventory_core.sql"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		fmt.Printf("Failed to connect to DB: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	schema, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		fmt.Printf("Failed to apply %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Applied %s.\n", path)
}
