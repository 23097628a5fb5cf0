// Package metrics aggregates call lists into the dashboard's summary and
// per-day series. All aggregation is done in memory over already-filtered
// call slices so the numbers always agree with what the list view shows.
package metrics

import (
	"context"
	"log/slog"
	"sort"

	"calldash/internal/calls"
	"calldash/internal/pricing"
	"calldash/pkg/logger"
)

const dayLayout = "2006-01-02"

// Summary is the headline figure block of the dashboard.
//
// TotalCalls counts every call regardless of status; the duration-derived
// figures only count completed calls, since failed and in-progress calls
// carry no billable talk time.
type Summary struct {
	TotalCalls     int     `json:"totalCalls"`
	TotalMinutes   float64 `json:"totalMinutes"`
	TotalCost      float64 `json:"totalCost"`
	AverageMinutes float64 `json:"averageMinutes"`
}

// DayBucket is one calendar-day entry of a daily series, keyed by the UTC
// date of the call anchor.
type DayBucket struct {
	Date  string  `json:"date"`
	Calls int     `json:"calls"`
	Cost  float64 `json:"cost"`
}

// ComputeSummary aggregates the headline figures at ratePerMinute.
func ComputeSummary(in []calls.Call, ratePerMinute float64) Summary {
	s := Summary{TotalCalls: len(in)}

	var completedSeconds int
	var completed int
	for _, c := range in {
		if c.Status != calls.StatusCompleted {
			continue
		}
		completed++
		completedSeconds += c.DurationSeconds
	}

	// The cost headline is priced from the already-rounded minutes figure so
	// the two numbers shown side by side always agree.
	s.TotalMinutes = pricing.Minutes(completedSeconds)
	s.TotalCost = pricing.Round2(s.TotalMinutes * ratePerMinute)
	if completed > 0 {
		s.AverageMinutes = pricing.Round2(float64(completedSeconds) / 60.0 / float64(completed))
	}
	return s
}

// GroupByDay counts calls per UTC calendar day. Calls without a usable
// anchor timestamp are excluded from the series (they stay in storage and
// in TotalCalls) and logged once each.
func GroupByDay(ctx context.Context, in []calls.Call) map[string]int {
	out := make(map[string]int)
	for _, c := range in {
		day, ok := anchorDay(ctx, c)
		if !ok {
			continue
		}
		out[day]++
	}
	return out
}

// GroupCostByDay sums cost per UTC calendar day at ratePerMinute. Every
// status contributes: short failed calls still carried connection time the
// operator pays for. Each bucket is rounded independently, so the sum of
// buckets may drift a cent from the summary total.
func GroupCostByDay(ctx context.Context, in []calls.Call, ratePerMinute float64) map[string]float64 {
	raw := make(map[string]float64)
	for _, c := range in {
		day, ok := anchorDay(ctx, c)
		if !ok {
			continue
		}
		if c.DurationSeconds > 0 {
			raw[day] += float64(c.DurationSeconds) / 60.0 * ratePerMinute
		} else if _, seen := raw[day]; !seen {
			raw[day] = 0
		}
	}
	out := make(map[string]float64, len(raw))
	for day, cost := range raw {
		out[day] = pricing.Round2(cost)
	}
	return out
}

// DailySeries merges per-day counts and costs into a date-sorted slice
// suitable for charting.
func DailySeries(ctx context.Context, in []calls.Call, ratePerMinute float64) []DayBucket {
	counts := GroupByDay(ctx, in)
	costs := GroupCostByDay(ctx, in, ratePerMinute)

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]DayBucket, 0, len(days))
	for _, day := range days {
		out = append(out, DayBucket{Date: day, Calls: counts[day], Cost: costs[day]})
	}
	return out
}

func anchorDay(ctx context.Context, c calls.Call) (string, bool) {
	anchor, ok := c.Anchor()
	if !ok {
		logger.From(ctx).Warn("call has no usable timestamp, excluded from daily series",
			slog.String("call_id", c.ExternalID))
		return "", false
	}
	return anchor.UTC().Format(dayLayout), true
}
