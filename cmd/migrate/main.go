package main

import (
	"context"
	"log"
	"os"
	"time"

	"gogsea/adapters/sqlstore"
	"gogsea/internal/migration"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	driver := os.Getenv("RUN_STORE_DRIVER")
	dsn := os.Getenv("DATABASE_URL")
	if len(os.Args) == 3 {
		driver, dsn = os.Args[1], os.Args[2]
	}
	if driver == "" || driver == "memory" || dsn == "" {
		log.Fatal("Usage: migrate <postgres|sqlite> <database_url> (or set RUN_STORE_DRIVER and DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var migrator migration.Migrator = migration.NewRunner()
	log.Printf("Applying run ledger schema %s to %s database", migrator.Version(), driver)

	// Open applies the schema; it is idempotent.
	db, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	var runs int
	if err := db.GetContext(ctx, &runs, "SELECT COUNT(*) FROM analysis_runs"); err != nil {
		log.Fatalf("Failed to verify schema: %v", err)
	}
	log.Printf("Migration complete: %d recorded runs", runs)
}
