// Package sync pulls call history from the voice provider and reconciles it
// into local storage. Runs are serialized per agent so concurrent triggers
// cannot race each other.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"calldash/internal/audit"
	"calldash/internal/calls"
	"calldash/internal/config"
	"calldash/internal/normalize"
	"calldash/internal/provider"
	"calldash/internal/store"
	"calldash/pkg/logger"
)

var ErrSyncInProgress = errors.New("sync: already running for this agent")

// Report summarizes one reconciliation run. Total always equals
// Imported + Updated: records we could not store are logged and skipped,
// never silently counted.
type Report struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

// Service orchestrates fetch, normalize and upsert.
type Service struct {
	fetcher    provider.CallFetcher
	normalizer *normalize.Normalizer
	repo       store.Repository
	locker     Locker
	history    *audit.Service

	agentID    string
	pageLimit  int
	maxRetries int
	retryDelay time.Duration
	lockTTL    time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewService(
	fetcher provider.CallFetcher,
	normalizer *normalize.Normalizer,
	repo store.Repository,
	locker Locker,
	history *audit.Service,
	cfg config.ProviderConfig,
) *Service {
	return &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		repo:       repo,
		locker:     locker,
		history:    history,
		agentID:    cfg.AgentID,
		pageLimit:  cfg.PageLimit,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		lockTTL:    2 * cfg.RequestTimeout * time.Duration(cfg.MaxRetries+1),
		sleep:      sleepCtx,
	}
}

// Sync runs one full reconciliation. It returns ErrSyncInProgress when
// another run already holds the agent lock.
func (s *Service) Sync(ctx context.Context, trigger audit.Trigger) (Report, error) {
	log := logger.From(ctx).With(slog.String("agent_id", s.agentID), slog.String("trigger", string(trigger)))
	started := time.Now().UTC()

	token := uuid.NewString()
	key := "calldash:sync:" + s.agentID
	ok, err := s.locker.Acquire(ctx, key, token, s.lockTTL)
	if err != nil {
		return Report{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return Report{}, ErrSyncInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn("release sync lock failed", slog.String("error", err.Error()))
		}
	}()

	report, runErr := s.run(ctx, log)
	s.record(ctx, log, trigger, started, report, runErr)
	if runErr != nil {
		return Report{}, runErr
	}

	log.Info("sync finished",
		slog.Int("imported", report.Imported),
		slog.Int("updated", report.Updated),
		slog.Int("total", report.Total),
		slog.Duration("elapsed", time.Since(started)))
	return report, nil
}

func (s *Service) run(ctx context.Context, log *slog.Logger) (Report, error) {
	records, err := s.fetchWithRetry(ctx, log)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, rec := range records {
		c := s.normalizer.Normalize(ctx, rec)
		created, err := s.repo.UpsertCall(ctx, c)
		if err != nil {
			// One bad row must not abort the run.
			log.Warn("upsert failed, skipping record",
				slog.String("call_id", c.ExternalID),
				slog.String("error", err.Error()))
			continue
		}
		if created {
			report.Imported++
		} else {
			report.Updated++
		}
		report.Total++
	}
	return report, nil
}

// fetchWithRetry retries transient provider failures with linearly growing
// backoff: delay, 2*delay, 3*delay.
func (s *Service) fetchWithRetry(ctx context.Context, log *slog.Logger) ([]provider.Record, error) {
	req := provider.ListCallsRequest{Limit: s.pageLimit, AgentID: s.agentID}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		records, err := s.fetcher.ListCalls(ctx, req)
		if err == nil {
			return records, nil
		}
		lastErr = err
		log.Warn("provider fetch failed",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", s.maxRetries),
			slog.String("error", err.Error()))

		if attempt == s.maxRetries {
			break
		}
		if err := s.sleep(ctx, time.Duration(attempt)*s.retryDelay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch calls after %d attempts: %w", s.maxRetries, lastErr)
}

// record appends the run to history, best-effort.
func (s *Service) record(ctx context.Context, log *slog.Logger, trigger audit.Trigger, started time.Time, report Report, runErr error) {
	if s.history == nil {
		return
	}
	run := audit.Run{
		AgentID:    s.agentID,
		Trigger:    trigger,
		Imported:   report.Imported,
		Updated:    report.Updated,
		Total:      report.Total,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := s.history.Append(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("record sync run failed", slog.String("error", err.Error()))
	}
}

// Calls loads the stored calls for this service's agent scope.
func (s *Service) Calls(ctx context.Context) ([]calls.Call, error) {
	return s.repo.ListCalls(ctx, store.ListOptions{AgentID: s.agentID})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
