package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one raw call record as returned by the provider's list-calls
// endpoint. Field presence is inconsistent across provider versions, so
// every field is optional and timestamp fields decode leniently.
type Record struct {
	CallID     string `json:"call_id"`
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`

	// CallType is "phone_call" or "web_call" when present.
	CallType string `json:"call_type"`

	// CallStatus is the provider lifecycle status
	// (ended, ongoing, registered, calling, error, cancelled).
	CallStatus string `json:"call_status"`

	StartTimestamp FlexTime `json:"start_timestamp"`
	EndTimestamp   FlexTime `json:"end_timestamp"`

	DurationMS int64 `json:"duration_ms"`

	Transcript          string  `json:"transcript"`
	TotalCost           float64 `json:"total_cost"`
	RecordingURL        string  `json:"recording_url"`
	DisconnectionReason string  `json:"disconnection_reason"`
}

// FlexTime decodes provider timestamps that arrive as epoch numbers
// (seconds or milliseconds), numeric strings, or ISO-8601 strings.
// Decoding never fails: unparsable input leaves Valid false so the
// record survives and only date-bucketed aggregations skip it.
type FlexTime struct {
	Time  time.Time
	Valid bool

	// Raw keeps the original token for log lines about unparsable dates.
	Raw string
}

// epochMillisFloor: numeric values below 10^12 are treated as seconds.
const epochMillisFloor = int64(1_000_000_000_000)

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	*t = FlexTime{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			t.Raw = s
			return nil
		}
		*t = parseFlexTime(str)
		return nil
	}
	*t = parseFlexTime(s)
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

func parseFlexTime(s string) FlexTime {
	out := FlexTime{Raw: s}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return out
		}
		ms := n
		if n < epochMillisFloor {
			ms = n * 1000
		}
		out.Time = time.UnixMilli(ms).UTC()
		out.Valid = true
		return out
	}

	// Fractional epoch values also show up occasionally.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f <= 0 {
			return out
		}
		ms := int64(f)
		if ms < epochMillisFloor {
			ms = int64(f * 1000)
		}
		out.Time = time.UnixMilli(ms).UTC()
		out.Valid = true
		return out
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			out.Time = ts.UTC()
			out.Valid = true
			return out
		}
	}
	return out
}
