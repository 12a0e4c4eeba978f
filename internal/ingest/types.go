package ingest

import (
	"context"
	"io"
	"time"
)

// EntryFragment bundles the raw text blobs one listing entry exposes on the
// page, before any field extraction. ClosingHeading is page-level: every
// entry from the same page carries the same value.
type EntryFragment struct {
	Title          string
	Descriptor     string
	Link           string
	ClosingHeading string
}

// TitleFields holds what can be recovered from an entry's title blob.
// An empty field means the matching pattern did not fire.
type TitleFields struct {
	CouncilReference string
	Address          string
	Description      string
}

// DescriptorFields holds what can be recovered from an entry's secondary
// descriptor blob (the caption next to the document link).
type DescriptorFields struct {
	TitleReference string
	Description    string
}

// RunStats holds the per-run counters surfaced to callers and run records.
type RunStats struct {
	Found    int `json:"found"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}
