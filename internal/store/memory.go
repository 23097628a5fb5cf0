package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"calldash/internal/calls"
)

// MemoryRepo is an in-memory Repository used by tests and the local
// simulator profile. It applies the same matching and ordering rules as
// the Postgres repository.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]calls.Call
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]calls.Call)}
}

func (r *MemoryRepo) UpsertCall(_ context.Context, c calls.Call) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, found := r.matchKey(c)
	if found {
		prev := r.byID[key]
		c.ExternalID = prev.ExternalID
		c.CreatedAt = prev.CreatedAt
		c.UpdatedAt = time.Now().UnixMilli()
		r.byID[key] = c
		return false, nil
	}
	r.byID[c.ExternalID] = c
	return true, nil
}

func (r *MemoryRepo) matchKey(c calls.Call) (string, bool) {
	if _, ok := r.byID[c.ExternalID]; ok {
		return c.ExternalID, true
	}
	for id, existing := range r.byID {
		if existing.LegacyID != "" && (existing.LegacyID == c.ExternalID || (c.LegacyID != "" && existing.LegacyID == c.LegacyID)) {
			return id, true
		}
		if c.LegacyID != "" && id == c.LegacyID {
			return id, true
		}
	}
	return "", false
}

func (r *MemoryRepo) GetCall(_ context.Context, externalID string) (calls.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.byID[externalID]; ok {
		return c, nil
	}
	for _, c := range r.byID {
		if c.LegacyID == externalID {
			return c, nil
		}
	}
	return calls.Call{}, ErrNotFound
}

func (r *MemoryRepo) ListCalls(_ context.Context, opts ListOptions) ([]calls.Call, error) {
	r.mu.RLock()
	out := make([]calls.Call, 0, len(r.byID))
	for _, c := range r.byID {
		if opts.AgentID != "" && c.AgentID != opts.AgentID {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return anchorOf(out[i]).After(anchorOf(out[j]))
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []calls.Call{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// anchorOf mirrors the SQL COALESCE ordering expression.
func anchorOf(c calls.Call) time.Time {
	if t, ok := c.Anchor(); ok {
		return t
	}
	return time.Time{}
}

func (r *MemoryRepo) CountCalls(_ context.Context, agentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if agentID == "" {
		return len(r.byID), nil
	}
	n := 0
	for _, c := range r.byID {
		if c.AgentID == agentID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) DeleteAllCalls(_ context.Context, agentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if agentID == "" {
		n := int64(len(r.byID))
		r.byID = make(map[string]calls.Call)
		return n, nil
	}
	var n int64
	for id, c := range r.byID {
		if c.AgentID == agentID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
