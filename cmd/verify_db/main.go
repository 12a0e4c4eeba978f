package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
)

func main() {
	ctx := context.Background()
	handle, err := db.Open(ctx, os.Getenv("SQLITE_DB"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer handle.Close()

	store := db.NewStore(handle)

	count, err := store.Count(ctx)
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}
	fmt.Printf("Total applications: %d\n", count)

	dupes, err := store.DuplicateReferences(ctx)
	if err != nil {
		log.Fatalf("Duplicate check failed: %v", err)
	}
	if len(dupes) > 0 {
		fmt.Printf("DUPLICATE council references found: %v\n", dupes)
	} else {
		fmt.Println("Duplicate council references: none")
	}

	apps, _, err := store.List(ctx, db.ListParams{Limit: 10})
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Reference", "Address", "On Notice To", "Scraped", "Description"})
	for _, app := range apps {
		onNotice := ""
		if app.OnNoticeTo != nil {
			onNotice = app.OnNoticeTo.Format("2006-01-02")
		}
		desc := app.Description
		if len(desc) > 48 {
			desc = desc[:45] + "..."
		}
		t.AppendRow(table.Row{
			app.CouncilReference,
			app.Address,
			onNotice,
			app.DateScraped.Format("2006-01-02"),
			desc,
		})
	}
	t.Render()
}
