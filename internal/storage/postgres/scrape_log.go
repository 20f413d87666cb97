package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/oos/auto-finder/internal/domain"
)

type ScrapeLogStore struct {
	db *sqlx.DB
}

func NewScrapeLogStore(db *sqlx.DB) *ScrapeLogStore {
	return &ScrapeLogStore{db: db}
}

// Record writes the audit row for one completed ingestion run.
func (s *ScrapeLogStore) Record(ctx context.Context, log *domain.ScrapeLog) error {
	query := `
		INSERT INTO scrape_logs (
			site_name, started_at, completed_at, status,
			listings_found, listings_new, listings_updated, duplicates_skipped, errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return s.db.QueryRowxContext(ctx, query,
		log.SiteName,
		log.StartedAt,
		log.CompletedAt,
		log.Status,
		log.ListingsFound,
		log.ListingsNew,
		log.ListingsUpdated,
		log.DuplicatesSkip,
		log.Errors,
	).Scan(&log.ID)
}
