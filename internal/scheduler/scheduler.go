package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oos/auto-finder/internal/domain"
)

const cleanupInterval = 24 * time.Hour

// Ingester defines the operations the scheduler drives.
type Ingester interface {
	Ingest(ctx context.Context) (*domain.RunStats, error)
	Cleanup(ctx context.Context) (int64, error)
}

type Scheduler struct {
	ingester Ingester
	interval time.Duration
	logger   *slog.Logger
	running  atomic.Bool
}

func NewScheduler(ingester Ingester, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runIngest(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runIngest(ctx)
		case <-cleanup.C:
			if _, err := s.ingester.Cleanup(ctx); err != nil {
				s.logger.Error("cleanup failed", "error", err)
			}
		}
	}
}

// runIngest serializes runs: if the previous run is still going when the
// ticker fires, the new one is skipped rather than raced.
func (s *Scheduler) runIngest(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("ingestion run already active, skipping")
		return
	}
	defer s.running.Store(false)

	runCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()

	if _, err := s.ingester.Ingest(runCtx); err != nil {
		s.logger.Error("ingestion run failed", "error", err)
	}
}
