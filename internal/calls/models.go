package calls

import "time"

// Call is the canonical local record of one voice call.
//
// ExternalID is the provider-assigned call identifier and the upsert key:
// a second record with the same id updates the existing row, never
// duplicates it. LegacyID is accepted as a secondary match key for rows
// imported before the provider id rename.
//
// ProviderTotalCost is the provider-reported cost of the call. It is a
// reference/audit value only: display costs are always recomputed from
// DurationSeconds and the current rate and never overwrite this field.
type Call struct {
	ExternalID string `json:"call_id" db:"call_id"`
	LegacyID   string `json:"legacy_call_id,omitempty" db:"legacy_call_id"`

	FromNumber string `json:"from_number,omitempty" db:"from_number"`
	ToNumber   string `json:"to_number,omitempty" db:"to_number"`

	// StartTime is the authoritative anchor for day bucketing; EndTime and
	// CreatedAt are fallback anchors, in that order.
	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`

	// DurationSeconds is always >= 0.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	Direction Direction `json:"direction" db:"direction"`
	Status    Status    `json:"status" db:"status"`

	AgentID   string `json:"agent_id,omitempty" db:"agent_id"`
	AgentName string `json:"agent_name,omitempty" db:"agent_name"`

	// ProviderStatus keeps the raw provider status string for audit.
	ProviderStatus    string  `json:"provider_status,omitempty" db:"provider_status"`
	Transcript        string  `json:"transcript,omitempty" db:"transcript"`
	ProviderTotalCost float64 `json:"provider_total_cost,omitempty" db:"provider_total_cost"`
	RecordingURL      string  `json:"recording_url,omitempty" db:"recording_url"`

	// CostPerMinute is the rate stored with the row, if any. The
	// UI-adjustable global rate overrides it for display metrics.
	CostPerMinute float64 `json:"cost_per_minute,omitempty" db:"cost_per_minute"`

	// CreatedAt/UpdatedAt are entity-managed write stamps in epoch
	// milliseconds, matching the provider's timestamp convention.
	CreatedAt int64 `json:"created_at" db:"created_at"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusInProgress Status = "in_progress"
)

// ValidStatus reports whether s is one of the statuses permitted downstream.
func ValidStatus(s Status) bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusInProgress:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ValidDirection reports whether d is a known call direction.
func ValidDirection(d Direction) bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Anchor returns the timestamp used to bucket the call into a calendar day:
// start time, then end time, then the creation stamp. ok is false when the
// call carries no usable timestamp at all.
func (c Call) Anchor() (t time.Time, ok bool) {
	if c.StartTime != nil && !c.StartTime.IsZero() {
		return *c.StartTime, true
	}
	if c.EndTime != nil && !c.EndTime.IsZero() {
		return *c.EndTime, true
	}
	if c.CreatedAt > 0 {
		return time.UnixMilli(c.CreatedAt).UTC(), true
	}
	return time.Time{}, false
}
