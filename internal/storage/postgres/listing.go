package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oos/auto-finder/internal/domain"
)

const listingColumns = `
	id, title, price, location, url, image_url, image_hash, source_site,
	make, model, year, mileage, fuel_type, transmission,
	status, is_duplicate, duplicate_group_id, deal_score,
	previous_price, price_dropped, price_drop_amount,
	first_seen, last_seen, created_at, updated_at`

type ListingStore struct {
	db *sqlx.DB
}

func NewListingStore(db *sqlx.DB) *ListingStore {
	return &ListingStore{db: db}
}

// FindByURL returns the listing for a URL, or nil when none exists. URL is the
// natural key: re-seeing a URL is always an update of this row, never a second
// insert.
func (s *ListingStore) FindByURL(ctx context.Context, url string) (*domain.Listing, error) {
	var listing domain.Listing
	query := `SELECT ` + listingColumns + ` FROM car_listings WHERE url = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &listing, query, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Insert persists a new listing and fills in its generated id.
func (s *ListingStore) Insert(ctx context.Context, listing *domain.Listing) error {
	query := `
		INSERT INTO car_listings (
			title, price, location, url, image_url, image_hash, source_site,
			make, model, year, mileage, fuel_type, transmission,
			status, is_duplicate, duplicate_group_id, deal_score,
			previous_price, price_dropped, price_drop_amount,
			first_seen, last_seen
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		RETURNING id`

	return GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		listing.Title,
		listing.Price,
		listing.Location,
		listing.URL,
		listing.ImageURL,
		listing.ImageHash,
		listing.SourceSite,
		listing.Make,
		listing.Model,
		listing.Year,
		listing.Mileage,
		listing.FuelType,
		listing.Transmission,
		listing.Status,
		listing.IsDuplicate,
		listing.DuplicateGroupID,
		listing.DealScore,
		listing.PreviousPrice,
		listing.PriceDropped,
		listing.PriceDropAmount,
		listing.FirstSeen,
		listing.LastSeen,
	).Scan(&listing.ID)
}

// Update writes the re-sighting fields of an existing row: current price,
// last_seen and the price-drop tracking columns. Other columns keep their
// first-sighting values.
func (s *ListingStore) Update(ctx context.Context, listing *domain.Listing) error {
	query := `
		UPDATE car_listings SET
			price = $2,
			previous_price = $3,
			price_dropped = $4,
			price_drop_amount = $5,
			deal_score = $6,
			last_seen = $7,
			updated_at = NOW()
		WHERE id = $1`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		listing.ID,
		listing.Price,
		listing.PreviousPrice,
		listing.PriceDropped,
		listing.PriceDropAmount,
		listing.DealScore,
		listing.LastSeen,
	)
	return err
}

// Active returns the most recently seen active listings, newest first. This is
// the known set duplicate detection runs against.
func (s *ListingStore) Active(ctx context.Context, limit int) ([]domain.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM car_listings
		WHERE status = $1
		ORDER BY last_seen DESC
		LIMIT $2`

	var listings []domain.Listing
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &listings, query, domain.StatusActive, limit)
	return listings, err
}

// DeleteNotSeenSince removes rows whose last sighting predates the cutoff.
// This is the only deletion path; ingestion itself never deletes.
func (s *ListingStore) DeleteNotSeenSince(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM car_listings WHERE last_seen < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
