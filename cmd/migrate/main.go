package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freightline/tracker/internal/adapters/postgres"
	"github.com/freightline/tracker/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_core_tables.sql",
}

const downSQL = `
DROP TABLE IF EXISTS tracking_reports;
DROP TABLE IF EXISTS contracts;
`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("tracker-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), postgres.PoolOptions{MaxConns: 1})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	pool := db.Pool

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool)
	case "down":
		if _, err := pool.Exec(ctx, downSQL); err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Println("tracking tables dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	for _, f := range upFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}
