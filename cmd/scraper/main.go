package main

import (
	"context"
	"log"
	"os"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/ingest"
)

func main() {
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
	// morph.io convention: MORPH_URL overrides the configured page.
	if override := os.Getenv("MORPH_URL"); override != "" {
		config.BaseURL = override
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

	pipeline := ingest.NewPipeline(db.NewStore(handle), *config)
	if _, err := pipeline.Run(ctx); err != nil {
		log.Fatalf("Scrape failed: %v", err)
	}
}
