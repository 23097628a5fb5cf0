package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository used by tests and the
// simulator profile.

type MemoryRepo struct {
	mu   sync.Mutex
	runs []Run
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *MemoryRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Run, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}

func (r *MemoryRepo) Runs() []Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Run, len(r.runs))
	copy(out, r.runs)
	return out
}
