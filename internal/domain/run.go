package domain

import "time"

// RunStats holds statistics about one ingestion batch.
type RunStats struct {
	SourceSite        string
	TotalProcessed    int
	NewListings       int
	UpdatedListings   int
	DuplicatesSkipped int
	Errors            int
	Published         int
	RecordErrors      []string
	Duration          time.Duration
}

// ScrapeLog is the audit row written after each run, owned by the scheduler.
type ScrapeLog struct {
	ID              int64      `db:"id"`
	SiteName        string     `db:"site_name"`
	StartedAt       time.Time  `db:"started_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	Status          string     `db:"status"`
	ListingsFound   int        `db:"listings_found"`
	ListingsNew     int        `db:"listings_new"`
	ListingsUpdated int        `db:"listings_updated"`
	DuplicatesSkip  int        `db:"duplicates_skipped"`
	Errors          int        `db:"errors"`
}
