package audit

import "time"

// Run is an immutable record of one sync run against the voice provider.
//
// Invariants:
// - Runs are never updated or deleted.
// - Recording is best-effort; a failed write must not fail the sync itself.

type Run struct {
	ID      string `json:"id" db:"id"`
	AgentID string `json:"agent_id,omitempty" db:"agent_id"`

	// Trigger records what started the run.
	Trigger Trigger `json:"trigger" db:"trigger"`

	Imported int `json:"imported" db:"imported"`
	Updated  int `json:"updated" db:"updated"`
	Total    int `json:"total" db:"total"`

	// Error is the failure message when the run did not complete.
	Error string `json:"error,omitempty" db:"error"`

	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStartup   Trigger = "startup"
)
