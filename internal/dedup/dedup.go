// Package dedup decides whether a listing describes a vehicle that is already
// known, either from earlier in the same batch or from persisted history.
package dedup

import (
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oos/auto-finder/internal/domain"
)

// The two call sites intentionally use different cutoffs: in-batch screening
// is stricter than matching against persisted rows, where a close title plus a
// near-identical price (or an identical image) is enough.
const (
	intraBatchTitleSimilarity = 0.9
	crossRunTitleSimilarity   = 0.8
	maxDuplicatePriceDiff     = 50
)

// TitleSimilarity returns the case-insensitive matching-block ratio between two
// titles, in [0, 1].
func TitleSimilarity(a, b string) float64 {
	m := difflib.NewMatcher(chars(strings.ToLower(a)), chars(strings.ToLower(b)))
	return m.Ratio()
}

func chars(s string) []string {
	return strings.Split(s, "")
}

// BatchSet tracks the URLs and titles accepted so far in one ingestion run, so
// a vehicle cross-posted twice within a single batch is caught on its second
// appearance. Each run owns its own set; nothing is shared across runs.
type BatchSet struct {
	urls   map[string]struct{}
	titles []string
}

func NewBatchSet() *BatchSet {
	return &BatchSet{urls: make(map[string]struct{})}
}

// Seen reports whether the URL was already accepted in this batch, or the title
// is near-identical to an already-accepted one.
func (b *BatchSet) Seen(url, title string) bool {
	if _, ok := b.urls[url]; ok {
		return true
	}
	for _, existing := range b.titles {
		if TitleSimilarity(title, existing) > intraBatchTitleSimilarity {
			return true
		}
	}
	return false
}

// Add records an accepted listing for subsequent Seen checks.
func (b *BatchSet) Add(url, title string) {
	b.urls[url] = struct{}{}
	b.titles = append(b.titles, title)
}

// Detector matches candidates against known active listings from the store.
type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger.With("component", "dedup")}
}

// Match returns the id of the first known listing the candidate duplicates.
// A candidate duplicates a known row when the titles are similar and the prices
// within a few euro of each other, or when both carry the same perceptual image
// hash. First match wins; there is no ranking among duplicate candidates.
func (d *Detector) Match(candidate *domain.Listing, known []domain.Listing) (int64, bool) {
	for i := range known {
		existing := &known[i]

		if candidate.ImageHash != nil && existing.ImageHash != nil &&
			*candidate.ImageHash == *existing.ImageHash {
			d.logger.Debug("duplicate by image hash",
				"url", candidate.URL,
				"matched_id", existing.ID,
			)
			return existing.ID, true
		}

		if candidate.Price == nil || existing.Price == nil {
			continue
		}
		priceDiff := *candidate.Price - *existing.Price
		if priceDiff < 0 {
			priceDiff = -priceDiff
		}
		if priceDiff >= maxDuplicatePriceDiff {
			continue
		}

		if TitleSimilarity(candidate.Title, existing.Title) > crossRunTitleSimilarity {
			d.logger.Debug("duplicate by title and price",
				"url", candidate.URL,
				"matched_id", existing.ID,
			)
			return existing.ID, true
		}
	}
	return 0, false
}
