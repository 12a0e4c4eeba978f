package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using Colly, for sources that need rate
// limiting and retries (the notice-PDF fallback can issue one extra request
// per entry). Selected via the source's fetch config.
type CollyFetcher struct {
	UserAgent      string
	MaxRetries     int
	RequestTimeout time.Duration
	DomainDelay    time.Duration
	MaxBodySize    int
}

// NewCollyFetcher creates a CollyFetcher with sensible defaults.
func NewCollyFetcher() *CollyFetcher {
	return &CollyFetcher{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:     3,
		RequestTimeout: 30 * time.Second,
		DomainDelay:    1 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
	}
}

func (f *CollyFetcher) buildCollector(allowedDomains []string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	}
	if len(allowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(allowedDomains...))
	}

	c := colly.NewCollector(opts...)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
		RandomDelay: f.DomainDelay / 2,
	})
	c.SetRequestTimeout(f.RequestTimeout)

	c.OnError(func(r *colly.Response, err error) {
		if r.Request.Ctx.GetAny("retries") == nil {
			r.Request.Ctx.Put("retries", 0)
		}
		retries := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[colly] retry %d/%d for %s: %v", retries+1, f.MaxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	return c
}

// Fetch implements the Fetcher interface, returning a FetchedDocument.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := f.buildCollector([]string{parsedURL.Host})

	var result *FetchedDocument
	var fetchErr error
	var wg sync.WaitGroup
	wg.Add(1)

	c.OnResponse(func(r *colly.Response) {
		defer wg.Done()
		result = &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        io.NopCloser(bytes.NewReader(r.Body)),
			FetchedAt:   time.Now(),
			Headers:     map[string][]string(r.Headers.Clone()),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if r.Request.Ctx.GetAny("retries") != nil {
			retries = r.Request.Ctx.GetAny("retries").(int)
		}
		if retries >= f.MaxRetries {
			fetchErr = fmt.Errorf("fetch failed after %d retries: %w", f.MaxRetries, err)
			wg.Done()
		}
	})

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			fetchErr = ctx.Err()
			wg.Done()
		case <-done:
		}
	}()

	if err := c.Visit(targetURL); err != nil {
		close(done)
		return nil, fmt.Errorf("visit failed: %w", err)
	}

	wg.Wait()
	close(done)

	if fetchErr != nil {
		return nil, fetchErr
	}
	if result == nil {
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}

	return result, nil
}
