package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/oos/auto-finder/internal/domain"
)

// Plausibility bounds. Numeric fields outside these ranges are nulled with a
// warning; the listing itself still proceeds.
const (
	minTitleLength = 10
	minPrice       = 500
	maxPrice       = 200000
	minYear        = 1990
	maxMileage     = 500000
)

const defaultLocation = "Ireland"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	specialRe    = regexp.MustCompile(`[^\w\s\-.]`)
)

// RejectionError marks a raw record that failed validation and was dropped.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "listing rejected: " + e.Reason
}

// IsRejection reports whether err is a validation rejection rather than an
// unexpected failure.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

func reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// Normalizer cleans and validates raw scraped records into canonical listings.
type Normalizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger.With("component", "normalizer")}
}

// Normalize validates one raw record. It is pure apart from the injected clock:
// `now` becomes the listing's first_seen/last_seen and anchors the year bound.
func (n *Normalizer) Normalize(raw domain.RawListing, now time.Time) (*domain.Listing, error) {
	if raw.Title == "" || raw.URL == "" {
		return nil, reject("missing required fields")
	}

	title := cleanText(raw.Title)
	if len(title) < minTitleLength {
		return nil, reject("title %q too short after cleanup", title)
	}

	if !strings.HasPrefix(raw.URL, "http") {
		return nil, reject("invalid url %q", raw.URL)
	}

	price := raw.Price
	if price != nil && (*price < minPrice || *price > maxPrice) {
		n.logger.Warn("suspicious price, dropping field", "price", *price, "title", title)
		price = nil
	}

	year := raw.Year
	if year != nil && (*year < minYear || *year > now.Year()+1) {
		n.logger.Warn("suspicious year, dropping field", "year", *year, "title", title)
		year = nil
	}

	mileage := raw.Mileage
	if mileage != nil && (*mileage < 0 || *mileage > maxMileage) {
		n.logger.Warn("suspicious mileage, dropping field", "mileage", *mileage, "title", title)
		mileage = nil
	}

	location := cleanText(raw.Location)
	if location == "" {
		location = defaultLocation
	}

	var imageURL *string
	if raw.ImageURL != "" {
		if strings.HasPrefix(raw.ImageURL, "http") {
			u := raw.ImageURL
			imageURL = &u
		} else {
			n.logger.Warn("non-absolute image url, dropping field", "image_url", raw.ImageURL)
		}
	}

	var imageHash *string
	if raw.ImageHash != "" {
		h := raw.ImageHash
		imageHash = &h
	}

	sourceSite := raw.SourceSite
	if sourceSite == "" {
		sourceSite = "unknown"
	}

	now = now.UTC()

	return &domain.Listing{
		Title:        title,
		Price:        price,
		Location:     location,
		URL:          raw.URL,
		ImageURL:     imageURL,
		ImageHash:    imageHash,
		SourceSite:   sourceSite,
		Make:         cleanText(raw.Make),
		Model:        cleanText(raw.Model),
		Year:         year,
		Mileage:      mileage,
		FuelType:     cleanText(raw.FuelType),
		Transmission: cleanText(raw.Transmission),
		Status:       domain.StatusActive,
		FirstSeen:    now,
		LastSeen:     now,
	}, nil
}

// cleanText collapses whitespace and strips everything outside word characters,
// whitespace, hyphens and periods.
func cleanText(text string) string {
	cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return specialRe.ReplaceAllString(cleaned, "")
}
