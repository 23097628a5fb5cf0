package users

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo keeps accounts in process memory for tests and the simulator
// profile.
type MemoryRepo struct {
	mu         sync.RWMutex
	byUsername map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUsername: make(map[string]User)}
}

func (r *MemoryRepo) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, exists := r.byUsername[key]; exists {
		return ErrDuplicateUsername
	}
	r.byUsername[key] = u
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, exists := r.byUsername[key]; !exists {
		return ErrNotFound
	}
	r.byUsername[key] = u
	return nil
}

func (r *MemoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.byUsername[strings.ToLower(username)]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]User, 0, len(r.byUsername))
	for _, u := range r.byUsername {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
