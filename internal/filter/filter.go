// Package filter narrows call lists by date range, direction and status.
// Filtering is pure: it never mutates its input slice.
package filter

import (
	"fmt"
	"time"

	"calldash/internal/calls"
)

const dateLayout = "2006-01-02"

// Filters holds optional predicates combined with AND. Empty fields match
// everything.
type Filters struct {
	StartDate string
	EndDate   string
	Direction string
	Status    string
}

// IsZero reports whether no predicate is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Validate checks date syntax and enum values without applying anything.
func (f Filters) Validate() error {
	if f.StartDate != "" {
		if _, err := time.ParseInLocation(dateLayout, f.StartDate, time.Local); err != nil {
			return fmt.Errorf("invalid startDate %q: %w", f.StartDate, err)
		}
	}
	if f.EndDate != "" {
		if _, err := time.ParseInLocation(dateLayout, f.EndDate, time.Local); err != nil {
			return fmt.Errorf("invalid endDate %q: %w", f.EndDate, err)
		}
	}
	if dir := calls.Direction(f.Direction); f.Direction != "" && dir != calls.DirectionInbound && dir != calls.DirectionOutbound {
		return fmt.Errorf("invalid direction %q", f.Direction)
	}
	if f.Status != "" && !calls.ValidStatus(calls.Status(f.Status)) {
		return fmt.Errorf("invalid status %q", f.Status)
	}
	return nil
}

// Apply returns the calls matching every set predicate, preserving input
// order. With no predicates set the input is returned as-is.
func Apply(in []calls.Call, f Filters) []calls.Call {
	if f.IsZero() {
		return in
	}

	var start, end *time.Time
	if f.StartDate != "" {
		if t, err := time.ParseInLocation(dateLayout, f.StartDate, time.Local); err == nil {
			start = &t
		}
	}
	if f.EndDate != "" {
		if t, err := time.ParseInLocation(dateLayout, f.EndDate, time.Local); err == nil {
			// The end date is inclusive through the last millisecond of the day.
			eod := t.Add(24*time.Hour - time.Millisecond)
			end = &eod
		}
	}

	out := make([]calls.Call, 0, len(in))
	for _, c := range in {
		if f.Direction != "" && c.Direction != calls.Direction(f.Direction) {
			continue
		}
		if f.Status != "" && c.Status != calls.Status(f.Status) {
			continue
		}
		if start != nil || end != nil {
			anchor, ok := c.Anchor()
			if !ok {
				continue
			}
			if start != nil && anchor.Before(*start) {
				continue
			}
			if end != nil && anchor.After(*end) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
