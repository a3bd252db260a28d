package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tokenvault/internal/database"
	"tokenvault/internal/repository"
)

// Maintenance binary: purges expired refresh records plus revoked records
// older than the retention window. Meant to run from cron; exits non-zero
// only when the store itself is unreachable.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	retention := 30 * 24 * time.Hour
	if v := os.Getenv("REVOKED_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid REVOKED_RETENTION %q: %v", v, err)
		}
		retention = d
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	tokenRepo := repository.NewTokenRepository(db)
	deleted, err := tokenRepo.DeleteExpiredOrStale(context.Background(), time.Now().UTC(), retention)
	if err != nil {
		log.Fatalf("token cleanup failed: %v", err)
	}

	log.Printf("token cleanup completed: deleted=%d retention=%s", deleted, retention)
}
