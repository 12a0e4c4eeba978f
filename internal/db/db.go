package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultPath is the morph.io convention: the store lives next to the
// scraper as data.sqlite.
const DefaultPath = "data.sqlite"

// Open opens (creating if needed) the local SQLite store.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = os.Getenv("SQLITE_DB")
	}
	if path == "" {
		path = DefaultPath
	}

	handle, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := handle.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return handle, nil
}
