// Package main wraps the goose CLI for schema migrations.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/migrate [up|down|status]
package main

import (
	"fmt"
	"os"
	"os/exec"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("required environment variable DATABASE_URL not set")
		os.Exit(1)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "db/migrations"
	}

	cmd := exec.Command("goose", "-dir", dir, "postgres", dsn, command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("migration failed: %v\n", err)
		os.Exit(1)
	}
}
