package provider

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Simulator is a fixture implementation of CallFetcher for local
// development and tests. It generates a stable set of plausible records
// from a seed so repeated syncs see the same snapshot (and therefore
// exercise the update path, not endless inserts).
//
// Selection between Simulator and the real adapter happens in process
// wiring; business logic never sniffs the environment.
type Simulator struct {
	AgentID string
	Seed    int64
	Count   int
	Now     func() time.Time
}

func NewSimulator(agentID string) *Simulator {
	return &Simulator{AgentID: agentID, Seed: 1, Count: 25, Now: time.Now}
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) ListCalls(_ context.Context, req ListCallsRequest) ([]Record, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	count := s.Count
	if count <= 0 {
		count = 25
	}
	if req.Limit > 0 && req.Limit < count {
		count = req.Limit
	}

	rng := rand.New(rand.NewSource(s.Seed))
	base := now().UTC().Truncate(time.Hour)

	out := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		start := base.Add(-time.Duration(rng.Intn(15*24)) * time.Hour)
		durMS := int64(60+rng.Intn(300)) * 1000
		end := start.Add(time.Duration(durMS) * time.Millisecond)

		rec := Record{
			CallID:         fmt.Sprintf("call_sim_%04d", i),
			AgentID:        s.AgentID,
			AgentName:      "Demo Agent",
			ToNumber:       "+3902000000",
			CallType:       "phone_call",
			CallStatus:     "ended",
			StartTimestamp: FlexTime{Time: start, Valid: true},
			EndTimestamp:   FlexTime{Time: end, Valid: true},
			DurationMS:     durMS,
			TotalCost:      float64(durMS) / 60000 * 0.22,
		}
		if rng.Float64() < 0.7 {
			rec.FromNumber = fmt.Sprintf("+393%08d", rng.Intn(100000000))
		}
		if rng.Float64() < 0.1 {
			// short drop, classified as failed downstream
			rec.DurationMS = int64(1+rng.Intn(4)) * 1000
			rec.EndTimestamp = FlexTime{Time: start.Add(time.Duration(rec.DurationMS) * time.Millisecond), Valid: true}
		}
		out = append(out, rec)
	}
	return out, nil
}
