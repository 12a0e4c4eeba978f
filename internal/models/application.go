package models

import "time"

// Application represents one development application as advertised on the
// council's planning page. CouncilReference is the natural key; a reference
// is advertised once and the stored row is never updated afterwards.
type Application struct {
	ID                  int64      `json:"id"`
	CouncilReference    string     `json:"council_reference"`
	Address             string     `json:"address,omitempty"`
	Description         string     `json:"description,omitempty"`
	OnNoticeTo          *time.Time `json:"on_notice_to,omitempty"`
	DocumentDescription string     `json:"document_description,omitempty"`
	TitleReference      string     `json:"title_reference,omitempty"`
	DateScraped         time.Time  `json:"date_scraped"`

	// Present in the schema but not produced by the listing page. The page
	// only advertises title, notice period and document; these come from
	// other council feeds if at all.
	DateReceived     string `json:"date_received,omitempty"`
	Applicant        string `json:"applicant,omitempty"`
	Owner            string `json:"owner,omitempty"`
	StageDescription string `json:"stage_description,omitempty"`
	StageStatus      string `json:"stage_status,omitempty"`
}

// ScrapeRun records one pipeline execution against a source.
type ScrapeRun struct {
	RunID        string     `json:"run_id"`
	SourceID     string     `json:"source_id"`
	Status       string     `json:"status"` // running, completed, failed
	EntriesFound int        `json:"entries_found"`
	Inserted     int        `json:"inserted"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
