package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
)

type MockFetcher struct {
	Data map[string][]byte
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	content, ok := m.Data[url]
	if !ok {
		return nil, fmt.Errorf("mock 404: %s", url)
	}
	return &FetchedDocument{
		URL:        url,
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewReader(content)),
		Headers:    make(map[string][]string),
		FetchedAt:  time.Now(),
	}, nil
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()

	handle, err := db.Open(ctx, filepath.Join(t.TempDir(), "data.sqlite"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { handle.Close() })

	if err := db.ApplyMigrations(ctx, handle); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return db.NewStore(handle)
}

func newTestPipeline(store *db.Store, pages map[string][]byte) *Pipeline {
	return &Pipeline{
		Store:   store,
		Fetcher: &MockFetcher{Data: pages},
		Config: SourceConfig{
			ID:      "testcouncil",
			BaseURL: "https://example.org/planning/applications",
		},
	}
}

const listingPage = `
<html><body>
<div class="tab-pane">
  <h3>closing 14 March 2025</h3>
  <div class="generic-list__item">
    <div class="generic-list__title">
      <a href="/documents/pln-24-0109.pdf">PLN-24-0109 - 12 Main Street, Longford: Construct a shed</a>
    </div>
    <span>(CT 21938/12) - Outbuilding addition</span>
  </div>
  <div class="generic-list__item">
    <div class="generic-list__title">
      <a href="https://example.org/documents/other.pdf">Community notice without a reference code: Road closure</a>
    </div>
    <span>not an application</span>
  </div>
</div>
</body></html>`

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pipeline := newTestPipeline(store, map[string][]byte{
		"https://example.org/planning/applications": []byte(listingPage),
	})

	stats, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if stats.Found != 2 {
		t.Errorf("expected 2 entries found, got %d", stats.Found)
	}
	if stats.Inserted != 1 {
		t.Errorf("expected 1 insert, got %d", stats.Inserted)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed entry (no reference code), got %d", stats.Failed)
	}

	app, err := store.GetByReference(ctx, "PLN-24-0109")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if app == nil {
		t.Fatal("expected PLN-24-0109 to be stored")
	}
	if app.Address != "12 Main Street, Longford" {
		t.Errorf("unexpected address: %q", app.Address)
	}
	if app.Description != "Outbuilding addition" {
		t.Errorf("descriptor description should override title description, got %q", app.Description)
	}
	if app.TitleReference != "21938/12" {
		t.Errorf("unexpected title reference: %q", app.TitleReference)
	}
	if app.OnNoticeTo == nil || app.OnNoticeTo.Format("2006-01-02") != "2025-03-14" {
		t.Errorf("unexpected on_notice_to: %v", app.OnNoticeTo)
	}
	if app.DocumentDescription != "https://example.org/documents/pln-24-0109.pdf" {
		t.Errorf("relative document link not resolved: %q", app.DocumentDescription)
	}
	if app.DateScraped.IsZero() {
		t.Error("date_scraped should be stamped")
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pipeline := newTestPipeline(store, map[string][]byte{
		"https://example.org/planning/applications": []byte(listingPage),
	})

	if _, err := pipeline.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	countAfterFirst, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}

	stats, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if stats.Inserted != 0 {
		t.Errorf("second run should insert nothing, inserted %d", stats.Inserted)
	}
	if stats.Skipped != 1 {
		t.Errorf("second run should skip the stored entry, skipped %d", stats.Skipped)
	}

	countAfterSecond, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if countAfterSecond != countAfterFirst {
		t.Errorf("row count changed across reruns: %d -> %d", countAfterFirst, countAfterSecond)
	}
}

func TestPipelineUnparsableClosingHeading(t *testing.T) {
	page := `
<html><body>
<div class="tab-pane">
  <h3>Closing soon, check back later</h3>
  <div class="generic-list__item">
    <div class="generic-list__title">
      <a href="/documents/pln-24-0200.pdf">PLN-24-0200 - 3 Low Street: Garage</a>
    </div>
  </div>
</div>
</body></html>`

	ctx := context.Background()
	store := newTestStore(t)
	pipeline := newTestPipeline(store, map[string][]byte{
		"https://example.org/planning/applications": []byte(page),
	})

	stats, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("run should not fail on an unparsable heading: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("expected 1 insert, got %d", stats.Inserted)
	}

	app, err := store.GetByReference(ctx, "PLN-24-0200")
	if err != nil || app == nil {
		t.Fatalf("expected stored record, got app=%v err=%v", app, err)
	}
	if app.OnNoticeTo != nil {
		t.Errorf("on_notice_to should be absent for an unparsable heading, got %v", app.OnNoticeTo)
	}
}

func TestPipelineFetchFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pipeline := newTestPipeline(store, map[string][]byte{})

	if _, err := pipeline.Run(ctx); err == nil {
		t.Fatal("expected fetch failure to abort the run")
	}
}

func TestPipelineEmptyPageIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pipeline := newTestPipeline(store, map[string][]byte{
		"https://example.org/planning/applications": []byte(`<html><body><h1>Nothing here</h1></body></html>`),
	})

	stats, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("empty page should not be an error: %v", err)
	}
	if stats.Found != 0 || stats.Inserted != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
