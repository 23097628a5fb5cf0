package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"calldash/internal/audit"
	"calldash/pkg/logger"
)

// Scheduler triggers periodic background syncs. Runs never stack: if a run
// is still holding the agent lock when the ticker fires, the tick is
// dropped and logged.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	done     chan struct{}
}

func NewScheduler(svc *Service, interval time.Duration) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, done: make(chan struct{})}
}

// Run blocks until ctx is canceled. Call it from its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	log := logger.From(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("sync scheduler started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			log.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.svc.Sync(ctx, audit.TriggerScheduled); err != nil {
				if errors.Is(err, ErrSyncInProgress) {
					log.Info("scheduled sync skipped, previous run still active")
					continue
				}
				log.Error("scheduled sync failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Wait blocks until Run has returned.
func (s *Scheduler) Wait() { <-s.done }
