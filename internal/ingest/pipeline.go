package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/db"
	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/models"
)

// Pipeline runs one scrape of a council listing page: fetch, locate entries,
// extract fields, normalize the closing date once per page, and hand each
// record to the store for insert-or-skip.
type Pipeline struct {
	Store   *db.Store
	Fetcher Fetcher
	Config  SourceConfig
}

func NewPipeline(store *db.Store, config SourceConfig) *Pipeline {
	var fetcher Fetcher
	if config.Fetch.UseColly {
		cf := NewCollyFetcher()
		if config.Fetch.TimeoutSeconds > 0 {
			cf.RequestTimeout = time.Duration(config.Fetch.TimeoutSeconds) * time.Second
		}
		if config.Fetch.MaxRetries > 0 {
			cf.MaxRetries = config.Fetch.MaxRetries
		}
		if config.Fetch.RateLimitRPS > 0 {
			cf.DomainDelay = time.Duration(float64(time.Second) / config.Fetch.RateLimitRPS)
		}
		fetcher = cf
	} else {
		fetcher = NewHTTPFetcher(time.Duration(config.Fetch.TimeoutSeconds) * time.Second)
	}

	return &Pipeline{
		Store:   store,
		Fetcher: fetcher,
		Config:  config,
	}
}

// Run executes one scrape against the configured source. Fetch and parse
// failures are fatal for the run; everything after that degrades per page or
// per entry and is reflected in the returned counters.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{}

	runID := uuid.New().String()
	if err := p.Store.BeginRun(ctx, runID, p.Config.ID); err != nil {
		log.Printf("[%s] warn: %v", p.Config.ID, err)
		runID = ""
	}
	var runErr error
	defer func() {
		if runID == "" {
			return
		}
		status := "completed"
		if runErr != nil {
			status = "failed"
		}
		if err := p.Store.FinishRun(ctx, runID, status, stats.Found, stats.Inserted, stats.Skipped, stats.Failed); err != nil {
			log.Printf("[%s] warn: %v", p.Config.ID, err)
		}
	}()

	log.Printf("[%s] fetching page: %s", p.Config.ID, p.Config.BaseURL)
	doc, err := p.Fetcher.Fetch(ctx, p.Config.BaseURL)
	if err != nil {
		runErr = fmt.Errorf("fetch error: %w", err)
		return stats, runErr
	}

	parsed, err := goquery.NewDocumentFromReader(doc.Body)
	doc.Body.Close()
	if err != nil {
		runErr = fmt.Errorf("parse error: %w", err)
		return stats, runErr
	}

	entries, shape := locateEntries(parsed)
	stats.Found = len(entries)
	if len(entries) == 0 {
		log.Printf("[%s] no entries found on page", p.Config.ID)
		return stats, nil
	}
	log.Printf("[%s] found %d entries (%s shape)", p.Config.ID, len(entries), shape)

	// The closing heading is page-level, so normalize once and reuse the
	// result for every entry. A parse failure is reported once and every
	// entry proceeds without a date.
	closing, err := normalizeClosingDate(entries[0].ClosingHeading)
	if err != nil {
		log.Printf("[%s] closing date parse failed: %v", p.Config.ID, err)
	}

	base, err := url.Parse(p.Config.BaseURL)
	if err != nil {
		base = nil
	}

	today := time.Now()
	for _, entry := range entries {
		record, ok := p.buildRecord(ctx, entry, closing, base, today)
		if !ok {
			stats.Failed++
			continue
		}

		outcome, err := p.Store.Insert(ctx, record)
		switch {
		case err != nil:
			log.Printf("[%s] failed to save %s: %v", p.Config.ID, record.CouncilReference, err)
			stats.Failed++
		case outcome == db.Skipped:
			log.Printf("[%s] duplicate entry for %s, skipping", p.Config.ID, record.CouncilReference)
			stats.Skipped++
		default:
			log.Printf("[%s] saved %s", p.Config.ID, record.CouncilReference)
			stats.Inserted++
		}
	}

	log.Printf("[%s] run complete: found=%d inserted=%d skipped=%d failed=%d",
		p.Config.ID, stats.Found, stats.Inserted, stats.Skipped, stats.Failed)
	return stats, nil
}

// buildRecord constructs a fresh record for one entry. Every field starts
// absent; nothing carries over between entries. An entry without a council
// reference cannot be keyed and is dropped.
func (p *Pipeline) buildRecord(ctx context.Context, entry EntryFragment, closing *time.Time, base *url.URL, today time.Time) (models.Application, bool) {
	record := models.Application{DateScraped: today}

	title := extractTitleFields(entry.Title)
	if title.CouncilReference == "" {
		log.Printf("[%s] entry without reference code, dropping: %q", p.Config.ID, entry.Title)
		return models.Application{}, false
	}
	record.CouncilReference = title.CouncilReference
	record.Address = title.Address
	record.Description = title.Description

	if entry.Descriptor != "" {
		descriptor := extractDescriptorFields(entry.Descriptor)
		record.TitleReference = descriptor.TitleReference
		// The caption is the more specific description when it has one.
		if descriptor.Description != "" {
			record.Description = descriptor.Description
		}
	}

	record.DocumentDescription = resolveDocumentURL(base, entry.Link)
	record.OnNoticeTo = closing
	if record.OnNoticeTo == nil && p.Config.NoticePDFDates {
		record.OnNoticeTo = p.noticeDateFromDocument(ctx, record.DocumentDescription)
	}

	return record, true
}

// resolveDocumentURL resolves a relative document link against the page's
// base URL; absolute links pass through unchanged.
func resolveDocumentURL(base *url.URL, link string) string {
	if link == "" {
		return ""
	}
	rel, err := url.Parse(link)
	if err != nil {
		return link
	}
	if rel.IsAbs() || base == nil {
		return link
	}
	return base.ResolveReference(rel).String()
}

// noticeDateFromDocument fetches an entry's notice PDF and tries to read the
// closing date out of it. Best-effort: any failure just leaves the date
// absent.
func (p *Pipeline) noticeDateFromDocument(ctx context.Context, documentURL string) *time.Time {
	if documentURL == "" || !strings.HasSuffix(strings.ToLower(documentURL), ".pdf") {
		return nil
	}

	doc, err := p.Fetcher.Fetch(ctx, documentURL)
	if err != nil {
		log.Printf("[%s] notice document fetch failed for %s: %v", p.Config.ID, documentURL, err)
		return nil
	}
	defer doc.Body.Close()

	content, err := io.ReadAll(doc.Body)
	if err != nil {
		log.Printf("[%s] notice document read failed for %s: %v", p.Config.ID, documentURL, err)
		return nil
	}

	closing, err := closingDateFromPDF(content)
	if err != nil {
		log.Printf("[%s] notice document date extraction failed for %s: %v", p.Config.ID, documentURL, err)
		return nil
	}
	return closing
}
