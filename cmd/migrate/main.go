package main

import (
	"log"
	"os"

	"ai-assistant-be/internal/repository/migration"
	"ai-assistant-be/pkg/database"
	"ai-assistant-be/pkg/rag/collection"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn, database.PoolOptions{MaxOpenConns: 2, LogSQL: true})
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Thread tables plus one chunk table per collection store
	stores := collection.DefaultCatalog().Stores()
	log.Printf("Migrating thread tables and %d chunk stores: %v", len(stores), stores)

	if err := migration.Run(db, stores); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("Success: Database migration completed.")
}
