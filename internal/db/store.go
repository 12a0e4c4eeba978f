package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Bigben83/northernmidlands-council-TAS-development-applications/internal/models"
)

// Store wraps the SQLite handle with the operations the pipeline and API
// need. Records are append-only: Insert either adds a row or reports a skip;
// nothing here ever updates or deletes an application.
type Store struct {
	handle *sql.DB
}

func NewStore(handle *sql.DB) *Store {
	return &Store{handle: handle}
}

// InsertOutcome reports what Insert did with a candidate record.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	Skipped
)

const dateLayout = "2006-01-02"

// Exists reports whether a record with the given council reference is
// already stored.
func (s *Store) Exists(ctx context.Context, councilReference string) (bool, error) {
	var exists bool
	err := s.handle.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM applications WHERE council_reference = ?)",
		councilReference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists check failed for %s: %w", councilReference, err)
	}
	return exists, nil
}

// Insert appends the record unless its council reference is already stored.
// The unique index backstops the check-then-act sequence: a constraint hit
// from a concurrent writer is reported as a skip, not a failure.
func (s *Store) Insert(ctx context.Context, app models.Application) (InsertOutcome, error) {
	if strings.TrimSpace(app.CouncilReference) == "" {
		return Skipped, fmt.Errorf("refusing to insert record without council_reference")
	}

	exists, err := s.Exists(ctx, app.CouncilReference)
	if err != nil {
		return Skipped, err
	}
	if exists {
		return Skipped, nil
	}

	_, err = s.handle.ExecContext(ctx, `
		INSERT INTO applications (
			council_reference, address, description, on_notice_to,
			document_description, title_reference, date_scraped,
			date_received, applicant, owner, stage_description, stage_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.CouncilReference,
		nilIfEmpty(app.Address),
		nilIfEmpty(app.Description),
		formatDate(app.OnNoticeTo),
		nilIfEmpty(app.DocumentDescription),
		nilIfEmpty(app.TitleReference),
		app.DateScraped.Format(dateLayout),
		nilIfEmpty(app.DateReceived),
		nilIfEmpty(app.Applicant),
		nilIfEmpty(app.Owner),
		nilIfEmpty(app.StageDescription),
		nilIfEmpty(app.StageStatus),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return Skipped, nil
		}
		return Skipped, fmt.Errorf("insert failed for %s: %w", app.CouncilReference, err)
	}

	return Inserted, nil
}

// GetByReference returns the stored record for a council reference, or nil
// when none exists.
func (s *Store) GetByReference(ctx context.Context, councilReference string) (*models.Application, error) {
	row := s.handle.QueryRowContext(ctx, selectCols+" WHERE council_reference = ?", councilReference)
	app, err := scanApplication(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed for %s: %w", councilReference, err)
	}
	return &app, nil
}

// ListParams filters and pages List results.
type ListParams struct {
	Search string // matches address or description, case-insensitive
	Limit  int
	Offset int
}

// List returns stored applications, newest first, plus the total row count
// for the same filter.
func (s *Store) List(ctx context.Context, params ListParams) ([]models.Application, int, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where := ""
	args := []any{}
	if params.Search != "" {
		where = " WHERE address LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE"
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.handle.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list count failed: %w", err)
	}

	rows, err := s.handle.QueryContext(ctx,
		selectCols+where+" ORDER BY id DESC LIMIT ? OFFSET ?",
		append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan failed: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list iteration failed: %w", err)
	}

	return apps, total, nil
}

// Count returns the number of stored applications.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.handle.QueryRowContext(ctx, "SELECT COUNT(*) FROM applications").Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// DuplicateReferences returns council references stored more than once.
// The unique index makes this impossible; the verify tool checks anyway.
func (s *Store) DuplicateReferences(ctx context.Context) ([]string, error) {
	rows, err := s.handle.QueryContext(ctx, `
		SELECT council_reference FROM applications
		GROUP BY council_reference HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// BeginRun records the start of a pipeline run.
func (s *Store) BeginRun(ctx context.Context, runID, sourceID string) error {
	_, err := s.handle.ExecContext(ctx,
		"INSERT INTO scrape_runs (run_id, source_id, status) VALUES (?, ?, 'running')",
		runID, sourceID)
	if err != nil {
		return fmt.Errorf("failed to create scrape run: %w", err)
	}
	return nil
}

// FinishRun closes out a run record with its final status and counters.
func (s *Store) FinishRun(ctx context.Context, runID, status string, found, inserted, skipped, failed int) error {
	_, err := s.handle.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = ?, entries_found = ?, inserted = ?, skipped = ?, failed = ?,
		    completed_at = datetime('now')
		WHERE run_id = ?`,
		status, found, inserted, skipped, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to update scrape run %s: %w", runID, err)
	}
	return nil
}

// ListRuns returns the most recent scrape runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.handle.QueryContext(ctx, `
		SELECT run_id, source_id, status, entries_found, inserted, skipped, failed,
		       started_at, completed_at
		FROM scrape_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("run list query failed: %w", err)
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		var startedAt string
		var completedAt sql.NullString
		if err := rows.Scan(&run.RunID, &run.SourceID, &run.Status,
			&run.EntriesFound, &run.Inserted, &run.Skipped, &run.Failed,
			&startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("run scan failed: %w", err)
		}
		run.StartedAt = parseStoredTime(startedAt)
		if completedAt.Valid {
			t := parseStoredTime(completedAt.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const selectCols = `SELECT id, council_reference, address, description, on_notice_to,
	document_description, title_reference, date_scraped,
	date_received, applicant, owner, stage_description, stage_status
	FROM applications`

func scanApplication(scan func(dest ...any) error) (models.Application, error) {
	var app models.Application
	var address, description, onNoticeTo, document, titleRef sql.NullString
	var dateScraped string
	var dateReceived, applicant, owner, stageDesc, stageStatus sql.NullString

	err := scan(&app.ID, &app.CouncilReference, &address, &description, &onNoticeTo,
		&document, &titleRef, &dateScraped,
		&dateReceived, &applicant, &owner, &stageDesc, &stageStatus)
	if err != nil {
		return models.Application{}, err
	}

	app.Address = address.String
	app.Description = description.String
	app.DocumentDescription = document.String
	app.TitleReference = titleRef.String
	app.DateReceived = dateReceived.String
	app.Applicant = applicant.String
	app.Owner = owner.String
	app.StageDescription = stageDesc.String
	app.StageStatus = stageStatus.String

	if onNoticeTo.Valid && onNoticeTo.String != "" {
		if t, err := time.Parse(dateLayout, onNoticeTo.String); err == nil {
			app.OnNoticeTo = &t
		}
	}
	app.DateScraped = parseStoredTime(dateScraped)

	return app, nil
}

func parseStoredTime(s string) time.Time {
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// formatDate stores dates as YYYY-MM-DD text, NULL when absent.
func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// nilIfEmpty returns nil for empty strings so NULL is stored.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
