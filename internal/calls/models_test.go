package calls

import (
	"testing"
	"time"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusInProgress} {
		if !ValidStatus(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if ValidStatus("no_answer") {
		t.Fatalf("unexpected status accepted")
	}
}

func TestAnchor_Priority(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)

	c := Call{StartTime: &start, EndTime: &end, CreatedAt: end.UnixMilli()}
	if got, ok := c.Anchor(); !ok || !got.Equal(start) {
		t.Fatalf("expected start anchor, got %v ok=%v", got, ok)
	}

	c.StartTime = nil
	if got, ok := c.Anchor(); !ok || !got.Equal(end) {
		t.Fatalf("expected end anchor, got %v ok=%v", got, ok)
	}

	c.EndTime = nil
	if got, ok := c.Anchor(); !ok || !got.Equal(end) {
		t.Fatalf("expected created_at anchor, got %v ok=%v", got, ok)
	}

	c.CreatedAt = 0
	if _, ok := c.Anchor(); ok {
		t.Fatalf("expected no anchor for empty call")
	}
}
