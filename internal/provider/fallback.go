package provider

import (
	"context"
	"log/slog"

	"calldash/pkg/logger"
)

// FallbackFetcher tries Primary and, only when it fails, serves records
// from Fallback. It exists so non-production wiring can keep a dashboard
// usable without provider credentials.
//
// It must NOT be wired in production: a live sync that cannot reach the
// provider has to fail loudly rather than silently show fixture data.
// Config validation enforces that; this type just composes two fetchers.
type FallbackFetcher struct {
	Primary  CallFetcher
	Fallback CallFetcher
}

func (f *FallbackFetcher) Name() string { return f.Primary.Name() + "+" + f.Fallback.Name() }

func (f *FallbackFetcher) ListCalls(ctx context.Context, req ListCallsRequest) ([]Record, error) {
	records, err := f.Primary.ListCalls(ctx, req)
	if err == nil {
		return records, nil
	}
	logger.From(ctx).Warn("primary fetcher failed, serving fallback data",
		slog.String("primary", f.Primary.Name()),
		slog.String("fallback", f.Fallback.Name()),
		slog.Any("err", err),
	)
	return f.Fallback.ListCalls(ctx, req)
}
