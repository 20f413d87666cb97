// Package feed pulls raw car listings from a scraper collaborator's JSON feed.
// Records come back untouched; validation and cleanup are the pipeline's job.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oos/auto-finder/internal/domain"
)

// Config holds feed source configuration.
type Config struct {
	BaseURL        string
	SiteName       string
	PageSize       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source implements service.Source over an HTTP listing feed.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	siteName       string
	pageSize       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new feed source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		siteName:       cfg.SiteName,
		pageSize:       cfg.PageSize,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("site", cfg.SiteName),
	}
}

// Name returns the source site identifier.
func (s *Source) Name() string {
	return s.siteName
}

// FetchListings pulls up to maxPages pages of raw listings from the feed.
func (s *Source) FetchListings(ctx context.Context, maxPages int) ([]domain.RawListing, error) {
	var all []domain.RawListing

	for page := 0; page < maxPages; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			return all, fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, resp.Listings...)

		s.logger.Debug("fetched page",
			"page", page,
			"listings", len(resp.Listings),
			"total", len(all),
		)

		if page >= resp.PageInfo.NumPages-1 {
			break
		}
	}

	return all, nil
}

func (s *Source) fetchPage(ctx context.Context, page int) (*feedResponse, error) {
	url := fmt.Sprintf("%s?pageSize=%d&page=%d", s.baseURL, s.pageSize, page)

	var resp *feedResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, url)
		if err == nil {
			return resp, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, url string) (*feedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "AutoFinder/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var feedResp feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &feedResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
