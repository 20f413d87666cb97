// Package scoring computes 0-100 desirability scores for listings. Two
// strategies coexist: Baseline is used at intake time when no user preferences
// are available, Weighted applies the user's configured factor weights. The
// orchestrator selects between them explicitly.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/oos/auto-finder/internal/domain"
)

// Naive market model: a car is worth about 20k new and sheds 1500/year with a
// floor of 1000. Stands in for real market data, which this core does not have.
const (
	marketValueBase      = 20000
	marketValueFloor     = 1000
	depreciationPerYear  = 1500
	expectedMilesPerYear = 12000
	freshnessWindowDays  = 30
)

// Strategy computes a deal score for a listing as of `now`.
type Strategy interface {
	Score(listing *domain.Listing, now time.Time) float64
}

// Weighted scores against user preferences. Each factor contributes up to its
// configured weight, scaled by a factor ratio in [0, 1]. Weights are taken as
// given; the settings subsystem is responsible for them summing to 100.
type Weighted struct {
	prefs domain.Preferences
}

func NewWeighted(prefs domain.Preferences) *Weighted {
	return &Weighted{prefs: prefs}
}

func (w *Weighted) Score(listing *domain.Listing, now time.Time) float64 {
	score := 0.0

	if listing.Price != nil && *listing.Price > 0 && listing.Year != nil {
		age := now.Year() - *listing.Year
		market := math.Max(marketValueFloor, float64(marketValueBase-age*depreciationPerYear))
		ratio := math.Min(1, market/float64(*listing.Price))
		score += ratio * float64(w.prefs.WeightPriceVsMarket)
	}

	if listing.Mileage != nil && *listing.Mileage > 0 && listing.Year != nil {
		age := now.Year() - *listing.Year
		expected := age * expectedMilesPerYear
		if *listing.Mileage < expected {
			ratio := math.Min(1, float64(expected)/float64(*listing.Mileage))
			score += ratio * float64(w.prefs.WeightMileageVsYear)
		}
	}

	switch strings.ToLower(listing.FuelType) {
	case "electric", "hybrid":
		score += float64(w.prefs.WeightCO2TaxBand)
	case "diesel":
		score += float64(w.prefs.WeightCO2TaxBand) * 0.7
	case "":
	default:
		score += float64(w.prefs.WeightCO2TaxBand) * 0.5
	}

	// Flat placeholder until real market-frequency data is plumbed in.
	score += float64(w.prefs.WeightPopularityRarity) * 0.5

	if listing.PriceDropped {
		score += float64(w.prefs.WeightPriceDropped)
	}

	location := strings.ToLower(listing.Location)
	for _, approved := range w.prefs.ApprovedLocations {
		if strings.Contains(location, strings.ToLower(approved)) {
			score += float64(w.prefs.WeightLocationMatch)
			break
		}
	}

	if !listing.FirstSeen.IsZero() {
		days := now.Sub(listing.FirstSeen).Hours() / 24
		ratio := math.Max(0, 1-days/freshnessWindowDays)
		score += ratio * float64(w.prefs.WeightListingFreshness)
	}

	return clamp(score)
}

// Baseline is the preference-free intake scorer: a fixed base plus bonuses for
// low price, recent year, low mileage for age and alternative fuel.
type Baseline struct{}

func NewBaseline() *Baseline {
	return &Baseline{}
}

func (b *Baseline) Score(listing *domain.Listing, now time.Time) float64 {
	score := 50.0

	if listing.Price != nil {
		switch price := *listing.Price; {
		case price < 10000:
			score += 20
		case price < 20000:
			score += 15
		case price < 30000:
			score += 10
		default:
			score += 5
		}
	}

	if listing.Year != nil {
		switch age := now.Year() - *listing.Year; {
		case age <= 2:
			score += 20
		case age <= 5:
			score += 15
		case age <= 10:
			score += 10
		default:
			score += 5
		}
	}

	if listing.Mileage != nil && listing.Year != nil {
		age := now.Year() - *listing.Year
		if age > 0 {
			avgMileage := float64(age) * 15000
			switch mileage := float64(*listing.Mileage); {
			case mileage < avgMileage*0.5:
				score += 15
			case mileage < avgMileage:
				score += 10
			case mileage < avgMileage*1.5:
				score += 5
			}
		}
	}

	fuel := strings.ToLower(listing.FuelType)
	switch {
	case strings.Contains(fuel, "electric"):
		score += 10
	case strings.Contains(fuel, "hybrid"):
		score += 8
	case strings.Contains(fuel, "diesel"):
		score += 5
	}

	return clamp(score)
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}
