// Package normalize converts raw provider call records into the canonical
// call shape stored and served by the dashboard. Normalization never fails:
// records missing critical fields are degraded, not dropped.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"calldash/internal/calls"
	"calldash/internal/provider"
	"calldash/pkg/logger"
)

// shortCallThresholdMS marks terminal calls that dropped almost immediately.
// An "ended" call at or below this duration is treated as failed.
const shortCallThresholdMS = 5000

// Normalizer maps provider records to canonical calls. The zero value is not
// usable; construct with New.
type Normalizer struct {
	costPerMinute float64
	now           func() time.Time
}

func New(costPerMinute float64) *Normalizer {
	return &Normalizer{costPerMinute: costPerMinute, now: time.Now}
}

// Normalize converts a single provider record. It always returns a usable
// call: when the record carries no call id, a degraded placeholder is
// produced so the sync report still accounts for it.
func (n *Normalizer) Normalize(ctx context.Context, rec provider.Record) calls.Call {
	now := n.now().UTC()
	nowMS := now.UnixMilli()

	if rec.CallID == "" {
		logger.From(ctx).Warn("provider record without call id, storing degraded placeholder")
		return calls.Call{
			ExternalID:      fmt.Sprintf("unknown_%d", nowMS),
			Status:          calls.StatusFailed,
			Direction:       calls.DirectionInbound,
			DurationSeconds: 0,
			AgentID:         rec.AgentID,
			AgentName:       rec.AgentName,
			ProviderStatus:  rec.CallStatus,
			CostPerMinute:   n.costPerMinute,
			CreatedAt:       nowMS,
			UpdatedAt:       nowMS,
		}
	}

	start := timePtr(ctx, rec.StartTimestamp, rec.CallID, "start_timestamp")
	end := timePtr(ctx, rec.EndTimestamp, rec.CallID, "end_timestamp")
	duration := durationSeconds(rec, start, end)

	c := calls.Call{
		ExternalID:        rec.CallID,
		FromNumber:        rec.FromNumber,
		ToNumber:          rec.ToNumber,
		StartTime:         start,
		EndTime:           end,
		DurationSeconds:   duration,
		Direction:         direction(rec),
		Status:            status(rec, duration),
		AgentID:           rec.AgentID,
		AgentName:         rec.AgentName,
		ProviderStatus:    rec.CallStatus,
		Transcript:        rec.Transcript,
		ProviderTotalCost: rec.TotalCost,
		RecordingURL:      rec.RecordingURL,
		CostPerMinute:     n.costPerMinute,
		CreatedAt:         nowMS,
		UpdatedAt:         nowMS,
	}
	return c
}

// status applies the provider-status decision table. First match wins.
func status(rec provider.Record, durationSeconds int) calls.Status {
	switch rec.CallStatus {
	case "ended":
		if longEnough(rec, durationSeconds) {
			return calls.StatusCompleted
		}
		return calls.StatusFailed
	case "ongoing", "registered", "calling":
		return calls.StatusInProgress
	case "error", "cancelled":
		return calls.StatusFailed
	}
	// Unknown or absent provider status: the call reached us, count it.
	return calls.StatusCompleted
}

// longEnough prefers the provider's millisecond duration when present so a
// 5001ms call is not misclassified by second-level rounding.
func longEnough(rec provider.Record, durationSeconds int) bool {
	if rec.DurationMS > 0 {
		return rec.DurationMS > shortCallThresholdMS
	}
	return durationSeconds > shortCallThresholdMS/1000
}

func direction(rec provider.Record) calls.Direction {
	switch rec.CallType {
	case "web_call":
		return calls.DirectionInbound
	case "phone_call":
		if rec.FromNumber != "" {
			return calls.DirectionInbound
		}
		return calls.DirectionOutbound
	}
	return calls.DirectionInbound
}

// durationSeconds resolves duration in priority order: provider milliseconds,
// then timestamp delta, then zero. Negative deltas clamp to zero.
func durationSeconds(rec provider.Record, start, end *time.Time) int {
	if rec.DurationMS > 0 {
		return int(math.Round(float64(rec.DurationMS) / 1000.0))
	}
	if start != nil && end != nil {
		d := end.Sub(*start).Seconds()
		if d < 0 {
			return 0
		}
		return int(math.Round(d))
	}
	return 0
}

func timePtr(ctx context.Context, ft provider.FlexTime, callID, field string) *time.Time {
	if !ft.Valid {
		if ft.Raw != "" && ft.Raw != "null" {
			logger.From(ctx).Warn("unparsable provider timestamp",
				slog.String("call_id", callID),
				slog.String("field", field),
				slog.String("raw", ft.Raw))
		}
		return nil
	}
	t := ft.Time.UTC()
	return &t
}
