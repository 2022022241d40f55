package main

import (
	"log"
	"os"

	"notevault/internal/repository"
	"notevault/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Migrating ledger tables (note_accounts, ledger_commitments)...")
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Error: migration failed: %v", err)
	}

	var accounts, commitments int64
	db.Table("note_accounts").Count(&accounts)
	db.Table("ledger_commitments").Count(&commitments)
	log.Printf("Migration complete: %d live accounts, %d commitments", accounts, commitments)
}
