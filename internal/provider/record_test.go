package provider

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexTime_EpochMilliseconds(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte("1700000000000"), &ft); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ft.Valid {
		t.Fatalf("expected valid time")
	}
	if got := ft.Time.Unix(); got != 1700000000 {
		t.Fatalf("expected unix 1700000000, got %d", got)
	}
}

func TestFlexTime_EpochSecondsPromoted(t *testing.T) {
	// Values below 10^12 are seconds, not milliseconds.
	var ft FlexTime
	if err := json.Unmarshal([]byte("1700000000"), &ft); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ft.Valid || ft.Time.Unix() != 1700000000 {
		t.Fatalf("expected unix 1700000000, got valid=%v time=%v", ft.Valid, ft.Time)
	}
}

func TestFlexTime_NumericString(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte(`"1700000000000"`), &ft); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ft.Valid || ft.Time.Unix() != 1700000000 {
		t.Fatalf("expected unix 1700000000, got valid=%v time=%v", ft.Valid, ft.Time)
	}
}

func TestFlexTime_ISO8601(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte(`"2024-03-01T10:30:00Z"`), &ft); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if !ft.Valid || !ft.Time.Equal(want) {
		t.Fatalf("expected %v, got valid=%v time=%v", want, ft.Valid, ft.Time)
	}
}

func TestFlexTime_InvalidNeverErrors(t *testing.T) {
	for _, raw := range []string{`"not-a-date"`, `null`, `""`, `-5`, `0`} {
		var ft FlexTime
		if err := json.Unmarshal([]byte(raw), &ft); err != nil {
			t.Fatalf("input %s: unexpected err: %v", raw, err)
		}
		if ft.Valid {
			t.Fatalf("input %s: expected invalid time", raw)
		}
	}
}

func TestRecord_DecodesMixedTimestampShapes(t *testing.T) {
	raw := `{
		"call_id": "call_1",
		"call_type": "phone_call",
		"call_status": "ended",
		"start_timestamp": 1700000000000,
		"end_timestamp": "2023-11-14T22:15:00Z",
		"duration_ms": 9097
	}`
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !rec.StartTimestamp.Valid || !rec.EndTimestamp.Valid {
		t.Fatalf("expected both timestamps valid: %+v", rec)
	}
	if rec.DurationMS != 9097 {
		t.Fatalf("expected duration 9097, got %d", rec.DurationMS)
	}
}
