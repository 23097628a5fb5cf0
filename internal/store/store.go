// Package store persists canonical calls and serves the ordered listings
// the dashboard reads.
package store

import (
	"context"
	"errors"

	"calldash/internal/calls"
)

var ErrNotFound = errors.New("store: call not found")

// ListOptions controls pagination and agent scoping of ListCalls. A zero
// Limit means no limit.
type ListOptions struct {
	Limit   int
	Offset  int
	AgentID string
}

// Repository is the persistence boundary for calls.
//
// UpsertCall keys on the provider call id, falling back to the legacy id
// for rows imported before the id rename. It reports whether the call was
// newly created (true) or refreshed an existing row (false).
//
// ListCalls returns calls newest-first by anchor timestamp: start time,
// else end time, else the creation stamp.
type Repository interface {
	UpsertCall(ctx context.Context, c calls.Call) (created bool, err error)
	GetCall(ctx context.Context, externalID string) (calls.Call, error)
	ListCalls(ctx context.Context, opts ListOptions) ([]calls.Call, error)
	CountCalls(ctx context.Context, agentID string) (int, error)
	DeleteAllCalls(ctx context.Context, agentID string) (int64, error)
}
