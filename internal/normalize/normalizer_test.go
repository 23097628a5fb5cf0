package normalize

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"calldash/internal/calls"
	"calldash/internal/provider"
)

func newTestNormalizer() *Normalizer {
	n := New(0.20)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func decodeRecord(t *testing.T, raw string) provider.Record {
	t.Helper()
	var rec provider.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func TestNormalize_EndedLongCallIsCompletedInbound(t *testing.T) {
	rec := decodeRecord(t, `{
		"call_id": "call_a",
		"call_type": "phone_call",
		"call_status": "ended",
		"from_number": "+390000000",
		"duration_ms": 9097
	}`)

	c := newTestNormalizer().Normalize(context.Background(), rec)

	if c.Status != calls.StatusCompleted {
		t.Fatalf("expected completed, got %s", c.Status)
	}
	if c.Direction != calls.DirectionInbound {
		t.Fatalf("expected inbound, got %s", c.Direction)
	}
	if c.DurationSeconds != 9 {
		t.Fatalf("expected 9s, got %d", c.DurationSeconds)
	}
}

func TestNormalize_EndedShortCallIsFailed(t *testing.T) {
	rec := decodeRecord(t, `{
		"call_id": "call_b",
		"call_type": "phone_call",
		"call_status": "ended",
		"duration_ms": 2000
	}`)

	c := newTestNormalizer().Normalize(context.Background(), rec)

	if c.Status != calls.StatusFailed {
		t.Fatalf("expected failed, got %s", c.Status)
	}
	if c.DurationSeconds != 2 {
		t.Fatalf("expected 2s, got %d", c.DurationSeconds)
	}
}

func TestNormalize_ShortCallBoundaryUsesMilliseconds(t *testing.T) {
	// 5001ms rounds to 5s but is strictly above the millisecond threshold.
	rec := provider.Record{CallID: "call_edge", CallStatus: "ended", DurationMS: 5001}
	c := newTestNormalizer().Normalize(context.Background(), rec)
	if c.Status != calls.StatusCompleted {
		t.Fatalf("expected completed at 5001ms, got %s", c.Status)
	}

	rec.DurationMS = 5000
	c = newTestNormalizer().Normalize(context.Background(), rec)
	if c.Status != calls.StatusFailed {
		t.Fatalf("expected failed at 5000ms, got %s", c.Status)
	}
}

func TestNormalize_OngoingCallIsInProgress(t *testing.T) {
	for _, ps := range []string{"ongoing", "registered", "calling"} {
		rec := provider.Record{CallID: "call_c", CallStatus: ps}
		c := newTestNormalizer().Normalize(context.Background(), rec)
		if c.Status != calls.StatusInProgress {
			t.Fatalf("provider status %q: expected in_progress, got %s", ps, c.Status)
		}
	}
}

func TestNormalize_ErrorAndCancelledAreFailed(t *testing.T) {
	for _, ps := range []string{"error", "cancelled"} {
		rec := provider.Record{CallID: "call_x", CallStatus: ps, DurationMS: 60000}
		c := newTestNormalizer().Normalize(context.Background(), rec)
		if c.Status != calls.StatusFailed {
			t.Fatalf("provider status %q: expected failed, got %s", ps, c.Status)
		}
	}
}

func TestNormalize_UnknownStatusDefaultsToCompleted(t *testing.T) {
	rec := provider.Record{CallID: "call_u", CallStatus: "something_new"}
	c := newTestNormalizer().Normalize(context.Background(), rec)
	if c.Status != calls.StatusCompleted {
		t.Fatalf("expected completed, got %s", c.Status)
	}
}

func TestNormalize_Direction(t *testing.T) {
	cases := []struct {
		callType string
		from     string
		want     calls.Direction
	}{
		{"web_call", "", calls.DirectionInbound},
		{"phone_call", "+15550001111", calls.DirectionInbound},
		{"phone_call", "", calls.DirectionOutbound},
		{"", "", calls.DirectionInbound},
	}
	for _, tc := range cases {
		rec := provider.Record{CallID: "call_d", CallType: tc.callType, FromNumber: tc.from}
		c := newTestNormalizer().Normalize(context.Background(), rec)
		if c.Direction != tc.want {
			t.Fatalf("type=%q from=%q: expected %s, got %s", tc.callType, tc.from, tc.want, c.Direction)
		}
	}
}

func TestNormalize_DurationFallsBackToTimestamps(t *testing.T) {
	rec := decodeRecord(t, `{
		"call_id": "call_t",
		"call_status": "ended",
		"start_timestamp": "2024-03-01T10:00:00Z",
		"end_timestamp": "2024-03-01T10:02:30Z"
	}`)
	c := newTestNormalizer().Normalize(context.Background(), rec)
	if c.DurationSeconds != 150 {
		t.Fatalf("expected 150s, got %d", c.DurationSeconds)
	}

	// Reversed timestamps clamp to zero rather than going negative.
	rec = decodeRecord(t, `{
		"call_id": "call_t2",
		"call_status": "ended",
		"start_timestamp": "2024-03-01T10:02:30Z",
		"end_timestamp": "2024-03-01T10:00:00Z"
	}`)
	c = newTestNormalizer().Normalize(context.Background(), rec)
	if c.DurationSeconds != 0 {
		t.Fatalf("expected 0s, got %d", c.DurationSeconds)
	}
}

func TestNormalize_MissingCallIDProducesDegradedRecord(t *testing.T) {
	c := newTestNormalizer().Normalize(context.Background(), provider.Record{CallStatus: "ended"})
	if !strings.HasPrefix(c.ExternalID, "unknown_") {
		t.Fatalf("expected synthetic id, got %q", c.ExternalID)
	}
	if c.Status != calls.StatusFailed || c.DurationSeconds != 0 {
		t.Fatalf("expected failed zero-duration placeholder, got %+v", c)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	rec := decodeRecord(t, `{
		"call_id": "call_a",
		"call_type": "phone_call",
		"call_status": "ended",
		"from_number": "+390000000",
		"start_timestamp": 1700000000000,
		"duration_ms": 9097
	}`)
	n := newTestNormalizer()
	first := n.Normalize(context.Background(), rec)
	second := n.Normalize(context.Background(), rec)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization not deterministic:\n%+v\n%+v", first, second)
	}
}
