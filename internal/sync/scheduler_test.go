package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"calldash/internal/provider"
	"calldash/internal/store"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Name() string { return "counting" }

func (f *countingFetcher) ListCalls(context.Context, provider.ListCallsRequest) ([]provider.Record, error) {
	f.calls.Add(1)
	return providerBatch(), nil
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	fetcher := &countingFetcher{}
	svc, _ := newTestService(fetcher, store.NewMemoryRepo())
	sched := NewScheduler(svc, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fetcher.calls.Load() == 0 {
		t.Fatalf("expected at least one scheduled sync")
	}

	cancel()
	done := make(chan struct{})
	go func() { sched.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("scheduler did not stop on context cancel")
	}
}

func TestScheduler_DropsTicksWhileRunActive(t *testing.T) {
	fetcher := &countingFetcher{}
	svc, _ := newTestService(fetcher, store.NewMemoryRepo())

	// Hold the agent lock as if a run were still in flight.
	key := "calldash:sync:" + testConfig().AgentID
	if ok, err := svc.locker.Acquire(context.Background(), key, "active-run", time.Minute); err != nil || !ok {
		t.Fatalf("setup lock failed: ok=%v err=%v", ok, err)
	}

	sched := NewScheduler(svc, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	// Many ticks fire against the held lock; none may reach the provider,
	// and none may queue up behind it.
	time.Sleep(50 * time.Millisecond)
	if n := fetcher.calls.Load(); n != 0 {
		t.Fatalf("expected ticks dropped while a run is active, provider called %d times", n)
	}

	// Once the lock is released the next tick syncs normally.
	if err := svc.locker.Release(context.Background(), key, "active-run"); err != nil {
		t.Fatalf("release: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fetcher.calls.Load() == 0 {
		t.Fatalf("expected syncs to resume after the active run finished")
	}

	cancel()
	sched.Wait()
}
