package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oos/auto-finder/internal/domain"
)

type PreferenceStore struct {
	db *sqlx.DB
}

func NewPreferenceStore(db *sqlx.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// user_settings keeps approved_locations as a JSON-encoded text column.
type preferencesRow struct {
	MinPrice          int     `db:"min_price"`
	MaxPrice          int     `db:"max_price"`
	ApprovedLocations string  `db:"approved_locations"`
	MinDealScore      float64 `db:"min_deal_score"`

	WeightPriceVsMarket    int `db:"weight_price_vs_market"`
	WeightMileageVsYear    int `db:"weight_mileage_vs_year"`
	WeightCO2TaxBand       int `db:"weight_co2_tax_band"`
	WeightPopularityRarity int `db:"weight_popularity_rarity"`
	WeightPriceDropped     int `db:"weight_price_dropped"`
	WeightLocationMatch    int `db:"weight_location_match"`
	WeightListingFreshness int `db:"weight_listing_freshness"`
}

// Get loads a user's scoring preferences. A nil result without error means the
// user has no settings row and scoring should fall back to the baseline
// strategy.
func (s *PreferenceStore) Get(ctx context.Context, userID int64) (*domain.Preferences, error) {
	var row preferencesRow
	query := `
		SELECT min_price, max_price, approved_locations, min_deal_score,
			weight_price_vs_market, weight_mileage_vs_year, weight_co2_tax_band,
			weight_popularity_rarity, weight_price_dropped, weight_location_match,
			weight_listing_freshness
		FROM user_settings
		WHERE user_id = $1`

	err := s.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var locations []string
	if row.ApprovedLocations != "" {
		if err := json.Unmarshal([]byte(row.ApprovedLocations), &locations); err != nil {
			return nil, fmt.Errorf("parse approved locations: %w", err)
		}
	}

	return &domain.Preferences{
		MinPrice:               row.MinPrice,
		MaxPrice:               row.MaxPrice,
		ApprovedLocations:      locations,
		MinDealScore:           row.MinDealScore,
		WeightPriceVsMarket:    row.WeightPriceVsMarket,
		WeightMileageVsYear:    row.WeightMileageVsYear,
		WeightCO2TaxBand:       row.WeightCO2TaxBand,
		WeightPopularityRarity: row.WeightPopularityRarity,
		WeightPriceDropped:     row.WeightPriceDropped,
		WeightLocationMatch:    row.WeightLocationMatch,
		WeightListingFreshness: row.WeightListingFreshness,
	}, nil
}
