package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/oos/auto-finder/internal/domain"
)

type ListingStore interface {
	FindByURL(ctx context.Context, url string) (*domain.Listing, error)
	Insert(ctx context.Context, listing *domain.Listing) error
	Update(ctx context.Context, listing *domain.Listing) error
	Active(ctx context.Context, limit int) ([]domain.Listing, error)
	DeleteNotSeenSince(ctx context.Context, cutoff time.Time) (int64, error)
}

type ScrapeLogStore interface {
	Record(ctx context.Context, log *domain.ScrapeLog) error
}

type PreferenceStore interface {
	Get(ctx context.Context, userID int64) (*domain.Preferences, error)
}

type Source interface {
	Name() string
	FetchListings(ctx context.Context, maxPages int) ([]domain.RawListing, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, listing *domain.Listing, isNew bool) error
	Close() error
}
