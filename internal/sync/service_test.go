package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"calldash/internal/audit"
	"calldash/internal/calls"
	"calldash/internal/config"
	"calldash/internal/normalize"
	"calldash/internal/provider"
	"calldash/internal/store"
)

type fakeFetcher struct {
	records  []provider.Record
	failures int
	calls    int
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) ListCalls(_ context.Context, _ provider.ListCallsRequest) ([]provider.Record, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("provider unavailable")
	}
	return f.records, nil
}

type flakyRepo struct {
	store.Repository
	failIDs map[string]bool
}

func (r *flakyRepo) UpsertCall(ctx context.Context, c calls.Call) (bool, error) {
	if r.failIDs[c.ExternalID] {
		return false, errors.New("storage rejected row")
	}
	return r.Repository.UpsertCall(ctx, c)
}

func testConfig() config.ProviderConfig {
	return config.ProviderConfig{
		AgentID:        "agent_1",
		PageLimit:      1000,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

func newTestService(fetcher provider.CallFetcher, repo store.Repository) (*Service, *audit.MemoryRepo) {
	history := audit.NewMemoryRepo()
	svc := NewService(fetcher, normalize.New(0.20), repo, NewLocalLocker(), audit.NewService(history), testConfig())
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc, history
}

func providerBatch() []provider.Record {
	return []provider.Record{
		{CallID: "c1", CallStatus: "ended", DurationMS: 9097, CallType: "phone_call", FromNumber: "+390000000"},
		{CallID: "c2", CallStatus: "ended", DurationMS: 2000, CallType: "phone_call"},
		{CallID: "c3", CallStatus: "ongoing", CallType: "web_call"},
	}
}

func TestSync_ImportsThenUpdatesIdempotently(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch()}
	repo := store.NewMemoryRepo()
	svc, _ := newTestService(fetcher, repo)

	first, err := svc.Sync(context.Background(), audit.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first.Imported != 3 || first.Updated != 0 || first.Total != 3 {
		t.Fatalf("unexpected first report: %+v", first)
	}

	second, err := svc.Sync(context.Background(), audit.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if second.Imported != 0 || second.Updated != 3 || second.Total != 3 {
		t.Fatalf("unexpected second report: %+v", second)
	}

	if n, _ := repo.CountCalls(context.Background(), ""); n != 3 {
		t.Fatalf("expected 3 rows after double sync, got %d", n)
	}
}

func TestSync_RetriesTransientFetchFailures(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch(), failures: 2}
	svc, _ := newTestService(fetcher, store.NewMemoryRepo())

	var delays []time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	report, err := svc.Sync(context.Background(), audit.TriggerManual)
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if report.Total != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", fetcher.calls)
	}
	// Linear backoff: delay, then 2*delay.
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Fatalf("unexpected backoff delays: %v", delays)
	}
}

func TestSync_GivesUpAfterMaxRetries(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch(), failures: 10}
	svc, history := newTestService(fetcher, store.NewMemoryRepo())

	if _, err := svc.Sync(context.Background(), audit.TriggerManual); err == nil {
		t.Fatalf("expected error")
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", fetcher.calls)
	}

	runs := history.Runs()
	if len(runs) != 1 || runs[0].Error == "" {
		t.Fatalf("expected failed run recorded: %+v", runs)
	}
}

func TestSync_SkipsBadRowsWithoutAborting(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch()}
	repo := &flakyRepo{Repository: store.NewMemoryRepo(), failIDs: map[string]bool{"c2": true}}
	svc, _ := newTestService(fetcher, repo)

	report, err := svc.Sync(context.Background(), audit.TriggerManual)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Imported != 2 || report.Total != 2 {
		t.Fatalf("expected the bad row skipped, got %+v", report)
	}
}

func TestSync_SecondConcurrentRunRefused(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch()}
	svc, _ := newTestService(fetcher, store.NewMemoryRepo())

	// Hold the agent lock as if a run were active.
	key := "calldash:sync:" + testConfig().AgentID
	ok, err := svc.locker.Acquire(context.Background(), key, "other-run", time.Minute)
	if err != nil || !ok {
		t.Fatalf("setup lock failed: ok=%v err=%v", ok, err)
	}

	if _, err := svc.Sync(context.Background(), audit.TriggerManual); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestSync_RecordsRunHistory(t *testing.T) {
	fetcher := &fakeFetcher{records: providerBatch()}
	svc, history := newTestService(fetcher, store.NewMemoryRepo())

	if _, err := svc.Sync(context.Background(), audit.TriggerScheduled); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	runs := history.Runs()
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Trigger != audit.TriggerScheduled || runs[0].Imported != 3 {
		t.Fatalf("unexpected run: %+v", runs[0])
	}
}
