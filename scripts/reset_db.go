package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"salesops-backend/internal/config"
	"salesops-backend/internal/db"
	"salesops-backend/internal/repositories"
)

// Clears the dispatch and verification logs so every pending order shows up
// on the dashboard again. Order, stock and invoice tables are left alone.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}
	tables := repositories.TablesFromConfig(cfg)

	fmt.Println("========================================")
	fmt.Println("   Reset Action Logs")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Printf("This will DELETE every row of %s and %s on %s/%s.\n",
		tables.Dispatch, tables.Verification, cfg.Warehouse.Host, cfg.Warehouse.Project)
	fmt.Println()

	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to warehouse: %v\n", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{tables.Dispatch, tables.Verification} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  cleared %s\n", table)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Action logs reset.")
}
