package dedup

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oos/auto-finder/internal/domain"
)

func testDetector() *Detector {
	return NewDetector(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, TitleSimilarity("2018 Toyota Corolla", "2018 Toyota Corolla"))
	assert.Equal(t, 1.0, TitleSimilarity("2018 TOYOTA Corolla", "2018 toyota corolla"),
		"comparison is case-insensitive")

	near := TitleSimilarity("2018 Toyota Corolla 1.4 Diesel", "2018 Toyota Corolla 1.4 Diesl")
	assert.Greater(t, near, 0.9)

	far := TitleSimilarity("2018 Toyota Corolla 1.4 Diesel", "2009 Ford Fiesta Automatic")
	assert.Less(t, far, 0.8)
}

func TestBatchSet(t *testing.T) {
	batch := NewBatchSet()

	assert.False(t, batch.Seen("https://a.ie/1", "2018 Toyota Corolla 1.4 Diesel"))

	batch.Add("https://a.ie/1", "2018 Toyota Corolla 1.4 Diesel")

	assert.True(t, batch.Seen("https://a.ie/1", "something else entirely"), "same url")
	assert.True(t, batch.Seen("https://b.ie/2", "2018 Toyota Corolla 1.4 Diesl"),
		"near-identical title from another site")
	assert.False(t, batch.Seen("https://b.ie/3", "2009 Ford Fiesta Automatic"))
}

func TestDetector_MatchByImageHash(t *testing.T) {
	candidate := &domain.Listing{
		Title:     "completely different wording here",
		URL:       "https://b.ie/99",
		Price:     intPtr(9000),
		ImageHash: strPtr("feedbeef"),
	}
	known := []domain.Listing{
		{ID: 7, Title: "2018 Toyota Corolla 1.4 Diesel", Price: intPtr(15000), ImageHash: strPtr("feedbeef")},
	}

	id, ok := testDetector().Match(candidate, known)
	assert.True(t, ok, "identical image hash wins regardless of title and price")
	assert.Equal(t, int64(7), id)
}

func TestDetector_MatchByTitleAndPrice(t *testing.T) {
	known := []domain.Listing{
		{ID: 3, Title: "2018 Toyota Corolla 1.4 Diesel", Price: intPtr(15000)},
	}

	nearDup := &domain.Listing{
		Title: "2018 Toyota Corolla 1.4 Diesl",
		Price: intPtr(15010),
	}
	id, ok := testDetector().Match(nearDup, known)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)

	tooFarPrice := &domain.Listing{
		Title: "2018 Toyota Corolla 1.4 Diesl",
		Price: intPtr(15060),
	}
	_, ok = testDetector().Match(tooFarPrice, known)
	assert.False(t, ok, "similar title but price difference over the threshold")

	differentCar := &domain.Listing{
		Title: "2009 Ford Fiesta Automatic",
		Price: intPtr(15010),
	}
	_, ok = testDetector().Match(differentCar, known)
	assert.False(t, ok)
}

func TestDetector_NullPricesSkipPriceRule(t *testing.T) {
	known := []domain.Listing{
		{ID: 3, Title: "2018 Toyota Corolla 1.4 Diesel", Price: nil},
	}
	candidate := &domain.Listing{
		Title: "2018 Toyota Corolla 1.4 Diesl",
		Price: intPtr(15010),
	}

	_, ok := testDetector().Match(candidate, known)
	assert.False(t, ok, "price rule needs both prices present")
}

func TestDetector_FirstMatchWins(t *testing.T) {
	known := []domain.Listing{
		{ID: 1, Title: "2018 Toyota Corolla 1.4 Diesel", Price: intPtr(15000)},
		{ID: 2, Title: "2018 Toyota Corolla 1.4 Diesel", Price: intPtr(15005)},
	}
	candidate := &domain.Listing{
		Title: "2018 Toyota Corolla 1.4 Diesel",
		Price: intPtr(15001),
	}

	id, ok := testDetector().Match(candidate, known)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}
