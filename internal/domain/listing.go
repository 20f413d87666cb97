package domain

import "time"

// Listing status values. Ingestion only ever writes active rows; removed and
// blocked are set by external sweeps.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
	StatusBlocked = "blocked"
)

// RawListing is the loose record emitted by the scraper collaborators. No field
// is guaranteed to be present or sane.
type RawListing struct {
	Title        string `json:"title"`
	Price        *int   `json:"price"`
	Location     string `json:"location"`
	URL          string `json:"url"`
	ImageURL     string `json:"image_url"`
	ImageHash    string `json:"image_hash"`
	SourceSite   string `json:"source_site"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         *int   `json:"year"`
	Mileage      *int   `json:"mileage"`
	FuelType     string `json:"fuel_type"`
	Transmission string `json:"transmission"`
}

// Listing is a validated car listing. Before persistence ID is zero and the
// tracking fields carry their defaults.
type Listing struct {
	ID         int64   `db:"id"`
	Title      string  `db:"title"`
	Price      *int    `db:"price"`
	Location   string  `db:"location"`
	URL        string  `db:"url"`
	ImageURL   *string `db:"image_url"`
	ImageHash  *string `db:"image_hash"`
	SourceSite string  `db:"source_site"`

	Make         string `db:"make"`
	Model        string `db:"model"`
	Year         *int   `db:"year"`
	Mileage      *int   `db:"mileage"`
	FuelType     string `db:"fuel_type"`
	Transmission string `db:"transmission"`

	Status           string  `db:"status"`
	IsDuplicate      bool    `db:"is_duplicate"`
	DuplicateGroupID *int64  `db:"duplicate_group_id"`
	DealScore        float64 `db:"deal_score"`

	PreviousPrice   *int `db:"previous_price"`
	PriceDropped    bool `db:"price_dropped"`
	PriceDropAmount int  `db:"price_drop_amount"`

	FirstSeen time.Time `db:"first_seen"`
	LastSeen  time.Time `db:"last_seen"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Preferences holds the per-user scoring configuration supplied by the settings
// subsystem. The seven weights are expected to total 100; the scorer takes them
// as given and does not re-validate.
type Preferences struct {
	MinPrice          int
	MaxPrice          int
	ApprovedLocations []string
	MinDealScore      float64

	WeightPriceVsMarket    int
	WeightMileageVsYear    int
	WeightCO2TaxBand       int
	WeightPopularityRarity int
	WeightPriceDropped     int
	WeightLocationMatch    int
	WeightListingFreshness int
}
