// Package audit keeps the append-only history of provider sync runs so
// operators can see when data last refreshed and why a refresh failed.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for sync runs.
//
// It MUST be append-only. No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, r Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
}

var ErrInvalidRun = errors.New("audit: invalid run")

// Service records sync runs. Callers treat recording as best-effort and
// only log failures.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, r Run) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if r.Trigger == "" {
		return ErrInvalidRun
	}

	now := s.clock().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = now
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = now
	}
	return s.repo.Append(ctx, r)
}

// Recent returns the newest runs, most recent first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Recent(ctx, limit)
}
