package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oos/auto-finder/internal/config"
	"github.com/oos/auto-finder/internal/dedup"
	"github.com/oos/auto-finder/internal/domain"
	"github.com/oos/auto-finder/internal/normalize"
	"github.com/oos/auto-finder/internal/scoring"
)

// IngestService drives a batch of raw records through normalization, duplicate
// detection, scoring and persistence, producing per-run statistics.
type IngestService struct {
	source      Source
	listings    ListingStore
	scrapeLogs  ScrapeLogStore
	preferences PreferenceStore
	txManager   TransactionManager
	publisher   Publisher
	normalizer  *normalize.Normalizer
	detector    *dedup.Detector
	logger      *slog.Logger
	config      config.IngestConfig
}

func NewIngestService(
	source Source,
	listings ListingStore,
	scrapeLogs ScrapeLogStore,
	preferences PreferenceStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.IngestConfig,
) *IngestService {
	logger = logger.With("site", source.Name())
	return &IngestService{
		source:      source,
		listings:    listings,
		scrapeLogs:  scrapeLogs,
		preferences: preferences,
		txManager:   txManager,
		publisher:   publisher,
		normalizer:  normalize.New(logger),
		detector:    dedup.NewDetector(logger),
		logger:      logger,
		config:      cfg,
	}
}

// Ingest runs one full ingestion cycle: pull raw listings from the feed,
// process them and write the audit log entry.
func (s *IngestService) Ingest(ctx context.Context) (*domain.RunStats, error) {
	startTime := time.Now()
	s.logger.Info("starting ingestion run", "max_pages", s.config.MaxPagesPerRun)

	raws, err := s.source.FetchListings(ctx, s.config.MaxPagesPerRun)
	if err != nil {
		return nil, fmt.Errorf("fetch listings: %w", err)
	}
	s.logger.Info("fetched raw listings", "count", len(raws))

	prefs := s.loadPreferences(ctx)

	stats, err := s.ProcessBatch(ctx, raws, prefs)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(startTime)

	if err := s.recordRun(ctx, stats, startTime); err != nil {
		return stats, fmt.Errorf("record scrape log: %w", err)
	}

	s.logger.Info("ingestion run completed",
		"total", stats.TotalProcessed,
		"new", stats.NewListings,
		"updated", stats.UpdatedListings,
		"duplicates_skipped", stats.DuplicatesSkipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// ProcessBatch pushes raw records through the pipeline one at a time. A bad
// record never aborts the batch: rejections and per-record failures are
// counted and the loop moves on. Only a failure to load the duplicate working
// set fails the whole run, since without it every record would be mis-scored
// as unique.
func (s *IngestService) ProcessBatch(ctx context.Context, raws []domain.RawListing, prefs *domain.Preferences) (*domain.RunStats, error) {
	stats := &domain.RunStats{
		SourceSite:     s.source.Name(),
		TotalProcessed: len(raws),
	}
	if len(raws) == 0 {
		return stats, nil
	}

	var scorer scoring.Strategy = scoring.NewBaseline()
	if prefs != nil {
		scorer = scoring.NewWeighted(*prefs)
	}

	known, err := s.listings.Active(ctx, s.config.WorkingSetSize)
	if err != nil {
		return nil, fmt.Errorf("load active listings: %w", err)
	}

	batch := dedup.NewBatchSet()

	for i := range raws {
		s.processRecord(ctx, raws[i], batch, &known, scorer, prefs, stats)
	}

	return stats, nil
}

func (s *IngestService) processRecord(
	ctx context.Context,
	raw domain.RawListing,
	batch *dedup.BatchSet,
	known *[]domain.Listing,
	scorer scoring.Strategy,
	prefs *domain.Preferences,
	stats *domain.RunStats,
) {
	now := time.Now().UTC()

	listing, err := s.normalizer.Normalize(raw, now)
	if err != nil {
		stats.Errors++
		stats.RecordErrors = append(stats.RecordErrors, err.Error())
		if normalize.IsRejection(err) {
			s.logger.Warn("rejected raw listing", "url", raw.URL, "reason", err)
		} else {
			s.logger.Error("normalize failed", "url", raw.URL, "error", err)
		}
		return
	}

	if batch.Seen(listing.URL, listing.Title) {
		stats.DuplicatesSkipped++
		s.logger.Debug("intra-batch duplicate skipped", "url", listing.URL)
		return
	}

	existing, err := s.listings.FindByURL(ctx, listing.URL)
	if err != nil {
		s.recordFailure(stats, listing.URL, fmt.Errorf("lookup by url: %w", err))
		return
	}

	if existing != nil {
		if err := s.updateExisting(ctx, existing, listing, scorer, now); err != nil {
			s.recordFailure(stats, listing.URL, fmt.Errorf("update listing: %w", err))
			return
		}
		stats.UpdatedListings++
		batch.Add(listing.URL, listing.Title)
		return
	}

	if matchID, ok := s.detector.Match(listing, *known); ok {
		listing.IsDuplicate = true
		listing.DuplicateGroupID = &matchID
	}
	listing.DealScore = scorer.Score(listing, now)
	// Seed price tracking so the very next sighting can already detect a drop.
	listing.PreviousPrice = listing.Price

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.listings.Insert(txCtx, listing)
	})
	if err != nil {
		// A failed insert must leave no trace in the working sets.
		s.recordFailure(stats, listing.URL, fmt.Errorf("insert listing: %w", err))
		return
	}

	stats.NewListings++
	batch.Add(listing.URL, listing.Title)
	*known = append(*known, *listing)

	s.publishDeal(ctx, listing, prefs, stats)
}

func (s *IngestService) updateExisting(
	ctx context.Context,
	existing *domain.Listing,
	incoming *domain.Listing,
	scorer scoring.Strategy,
	now time.Time,
) error {
	if existing.PreviousPrice != nil && incoming.Price != nil && *incoming.Price < *existing.PreviousPrice {
		// Sticky by design: a later price rise moves previous_price but never
		// clears the flag.
		existing.PriceDropped = true
		existing.PriceDropAmount = *existing.PreviousPrice - *incoming.Price
	}
	existing.PreviousPrice = incoming.Price
	existing.Price = incoming.Price
	existing.LastSeen = now
	existing.DealScore = scorer.Score(existing, now)

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.listings.Update(txCtx, existing)
	})
}

func (s *IngestService) publishDeal(ctx context.Context, listing *domain.Listing, prefs *domain.Preferences, stats *domain.RunStats) {
	if s.publisher == nil || listing.IsDuplicate {
		return
	}
	if prefs != nil && listing.DealScore < prefs.MinDealScore {
		return
	}

	if err := s.publisher.Publish(ctx, listing, true); err != nil {
		s.logger.Error("publish deal", "url", listing.URL, "error", err)
		stats.Errors++
		return
	}
	stats.Published++
}

func (s *IngestService) recordFailure(stats *domain.RunStats, url string, err error) {
	s.logger.Error("record processing failed", "url", url, "error", err)
	stats.Errors++
	stats.RecordErrors = append(stats.RecordErrors, fmt.Sprintf("%s: %v", url, err))
}

func (s *IngestService) loadPreferences(ctx context.Context) *domain.Preferences {
	if s.preferences == nil || s.config.UserID == 0 {
		return nil
	}
	prefs, err := s.preferences.Get(ctx, s.config.UserID)
	if err != nil {
		s.logger.Error("load preferences, falling back to baseline scoring", "error", err)
		return nil
	}
	return prefs
}

func (s *IngestService) recordRun(ctx context.Context, stats *domain.RunStats, startedAt time.Time) error {
	completed := time.Now().UTC()
	entry := &domain.ScrapeLog{
		SiteName:        s.source.Name(),
		StartedAt:       startedAt.UTC(),
		CompletedAt:     &completed,
		Status:          "completed",
		ListingsFound:   stats.TotalProcessed,
		ListingsNew:     stats.NewListings,
		ListingsUpdated: stats.UpdatedListings,
		DuplicatesSkip:  stats.DuplicatesSkipped,
		Errors:          stats.Errors,
	}
	return s.scrapeLogs.Record(ctx, entry)
}

// Cleanup deletes listings not re-seen within the retention window. It is the
// retention policy's deletion path; ingestion never removes rows itself.
func (s *IngestService) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.config.RetentionDays)
	removed, err := s.listings.DeleteNotSeenSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale listings: %w", err)
	}
	if removed > 0 {
		s.logger.Info("removed stale listings", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}
