package normalize

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oos/auto-finder/internal/domain"
)

func testNormalizer() *Normalizer {
	return New(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
}

func intPtr(v int) *int {
	return &v
}

func validRaw() domain.RawListing {
	return domain.RawListing{
		Title:      "2018 Toyota Corolla 1.4 Diesel",
		Price:      intPtr(15000),
		Location:   "Dublin",
		URL:        "https://example.ie/cars/123",
		ImageURL:   "https://example.ie/img/123.jpg",
		ImageHash:  "abc123",
		SourceSite: "carzone",
		Year:       intPtr(2018),
		Mileage:    intPtr(80000),
		FuelType:   "Diesel",
	}
}

func TestNormalize_ValidListing(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	listing, err := testNormalizer().Normalize(validRaw(), now)
	require.NoError(t, err)

	assert.Equal(t, "2018 Toyota Corolla 1.4 Diesel", listing.Title)
	assert.Equal(t, 15000, *listing.Price)
	assert.Equal(t, "Dublin", listing.Location)
	assert.Equal(t, "https://example.ie/cars/123", listing.URL)
	assert.Equal(t, "https://example.ie/img/123.jpg", *listing.ImageURL)
	assert.Equal(t, "abc123", *listing.ImageHash)
	assert.Equal(t, "carzone", listing.SourceSite)
	assert.Equal(t, 2018, *listing.Year)
	assert.Equal(t, 80000, *listing.Mileage)
	assert.Equal(t, domain.StatusActive, listing.Status)
	assert.False(t, listing.IsDuplicate)
	assert.Equal(t, now, listing.FirstSeen)
	assert.Equal(t, now, listing.LastSeen)
}

func TestNormalize_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawListing)
	}{
		{"missing title", func(r *domain.RawListing) { r.Title = "" }},
		{"missing url", func(r *domain.RawListing) { r.URL = "" }},
		{"title too short after cleanup", func(r *domain.RawListing) { r.Title = "!!! Golf !!!" }},
		{"url without scheme", func(r *domain.RawListing) { r.URL = "example.ie/cars/123" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			listing, err := testNormalizer().Normalize(raw, time.Now())
			require.Error(t, err)
			assert.Nil(t, listing)
			assert.True(t, IsRejection(err))
		})
	}
}

func TestNormalize_OutOfRangeFieldsNulledNotRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*domain.RawListing)
		check  func(*testing.T, *domain.Listing)
	}{
		{
			"price too low",
			func(r *domain.RawListing) { r.Price = intPtr(499) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Price) },
		},
		{
			"price too high",
			func(r *domain.RawListing) { r.Price = intPtr(200001) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Price) },
		},
		{
			"year before 1990",
			func(r *domain.RawListing) { r.Year = intPtr(1989) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Year) },
		},
		{
			"year too far in the future",
			func(r *domain.RawListing) { r.Year = intPtr(2027) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Year) },
		},
		{
			"next model year allowed",
			func(r *domain.RawListing) { r.Year = intPtr(2026) },
			func(t *testing.T, l *domain.Listing) { assert.Equal(t, 2026, *l.Year) },
		},
		{
			"negative mileage",
			func(r *domain.RawListing) { r.Mileage = intPtr(-1) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Mileage) },
		},
		{
			"mileage too high",
			func(r *domain.RawListing) { r.Mileage = intPtr(500001) },
			func(t *testing.T, l *domain.Listing) { assert.Nil(t, l.Mileage) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			listing, err := testNormalizer().Normalize(raw, now)
			require.NoError(t, err)
			tt.check(t, listing)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	raw := validRaw()
	raw.Location = ""
	raw.SourceSite = ""
	raw.ImageURL = "/img/relative.jpg"
	raw.ImageHash = ""

	listing, err := testNormalizer().Normalize(raw, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Ireland", listing.Location)
	assert.Equal(t, "unknown", listing.SourceSite)
	assert.Nil(t, listing.ImageURL, "non-absolute image url is dropped, not fatal")
	assert.Nil(t, listing.ImageHash)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  2018   Toyota  Corolla  ", "2018 Toyota Corolla"},
		{"BMW 320d!!! (M-Sport)", "BMW 320d M-Sport"},
		{"1.6 TDI\t\nEstate", "1.6 TDI Estate"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanText(tt.in))
	}
}
