package provider

import "context"

// CallFetcher is the provider-agnostic batch-listing contract the sync
// pipeline consumes.
//
// Rules:
// - No provider SDK/HTTP calls outside provider adapters.
// - Implementations must bound each attempt with an explicit timeout.
// - Returned records are raw provider payloads; normalization happens
//   downstream, never inside an adapter.
type CallFetcher interface {
	Name() string
	ListCalls(ctx context.Context, req ListCallsRequest) ([]Record, error)
}

// ListCallsRequest bounds and scopes one batch fetch.
type ListCallsRequest struct {
	// Limit is the page-size bound. Adapters clamp it to their own maximum.
	Limit int

	// AgentID restricts results to one agent when set.
	AgentID string
}
