package main

import (
	"context"
	"log"
	"os"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/api"
	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/ingest"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	sourceID := os.Getenv("SCRAPER_SOURCE")
	if sourceID == "" {
		sourceID = "northernmidlands"
	}

	registry, err := ingest.LoadRegistry("internal/ingest/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}
	config, err := registry.Source(sourceID)
	if err != nil {
		log.Fatalf("Unknown source: %v", err)
	}

	ctx := context.Background()
	handle, err := db.Open(ctx, os.Getenv("SQLITE_DB"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer handle.Close()

	if err := db.ApplyMigrations(ctx, handle); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv := api.NewServer(db.NewStore(handle), *config)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
