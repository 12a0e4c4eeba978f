package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	handle, err := Open(ctx, filepath.Join(t.TempDir(), "data.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { handle.Close() })

	if err := ApplyMigrations(ctx, handle); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return NewStore(handle)
}

func sampleApplication() models.Application {
	onNotice := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	return models.Application{
		CouncilReference:    "PLN-24-0109",
		Address:             "12 Main Street, Longford",
		Description:         "Outbuilding addition",
		OnNoticeTo:          &onNotice,
		DocumentDescription: "https://example.org/documents/pln-24-0109.pdf",
		TitleReference:      "21938/12",
		DateScraped:         time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestInsertThenSkipDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := sampleApplication()

	outcome, err := store.Insert(ctx, app)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if outcome != Inserted {
		t.Fatalf("expected Inserted, got %v", outcome)
	}

	exists, err := store.Exists(ctx, app.CouncilReference)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected record to exist after insert")
	}

	outcome, err = store.Insert(ctx, app)
	if err != nil {
		t.Fatalf("duplicate insert should not error: %v", err)
	}
	if outcome != Skipped {
		t.Fatalf("expected Skipped for duplicate, got %v", outcome)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestInsertRejectsEmptyReference(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	app := sampleApplication()
	app.CouncilReference = "  "
	if _, err := store.Insert(ctx, app); err == nil {
		t.Fatal("expected error for empty council reference")
	}
}

func TestGetByReferenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	app := sampleApplication()

	if _, err := store.Insert(ctx, app); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := store.GetByReference(ctx, app.CouncilReference)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored record")
	}
	if got.Address != app.Address {
		t.Errorf("address: expected %q, got %q", app.Address, got.Address)
	}
	if got.TitleReference != app.TitleReference {
		t.Errorf("title reference: expected %q, got %q", app.TitleReference, got.TitleReference)
	}
	if got.OnNoticeTo == nil || !got.OnNoticeTo.Equal(*app.OnNoticeTo) {
		t.Errorf("on_notice_to: expected %v, got %v", app.OnNoticeTo, got.OnNoticeTo)
	}
	if got.DateScraped.Format("2006-01-02") != "2025-02-20" {
		t.Errorf("date_scraped: got %v", got.DateScraped)
	}

	missing, err := store.GetByReference(ctx, "PLN-99-9999")
	if err != nil {
		t.Fatalf("get for missing reference failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing reference, got %+v", missing)
	}
}

func TestListWithSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := sampleApplication()
	second := sampleApplication()
	second.CouncilReference = "PLN-24-0110"
	second.Address = "5 High Street, Perth"
	second.Description = "New dwelling"

	for _, app := range []models.Application{first, second} {
		if _, err := store.Insert(ctx, app); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	apps, total, err := store.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(apps) != 2 {
		t.Fatalf("expected 2 rows, got total=%d len=%d", total, len(apps))
	}
	// Newest first.
	if apps[0].CouncilReference != "PLN-24-0110" {
		t.Errorf("expected newest row first, got %q", apps[0].CouncilReference)
	}

	apps, total, err = store.List(ctx, ListParams{Search: "longford"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || len(apps) != 1 || apps[0].CouncilReference != "PLN-24-0109" {
		t.Fatalf("unexpected search result: total=%d apps=%+v", total, apps)
	}
}

func TestScrapeRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.BeginRun(ctx, "run-1", "testcouncil"); err != nil {
		t.Fatalf("begin run failed: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", "completed", 5, 3, 2, 0); err != nil {
		t.Fatalf("finish run failed: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != "completed" || run.EntriesFound != 5 || run.Inserted != 3 || run.Skipped != 2 {
		t.Errorf("unexpected run record: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}
