package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"calldash/internal/calls"
)

func tp(t time.Time) *time.Time { return &t }

func sampleCalls() []calls.Call {
	return []calls.Call{
		{
			ExternalID:      "call_1",
			FromNumber:      "+390000000",
			ToNumber:        "+15550001111",
			StartTime:       tp(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)),
			DurationSeconds: 120,
			Direction:       calls.DirectionInbound,
			Status:          calls.StatusCompleted,
		},
		{
			ExternalID:      "call_2",
			DurationSeconds: 2,
			Direction:       calls.DirectionOutbound,
			Status:          calls.StatusFailed,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleCalls(), 0.20); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reparse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][8] != "Cost (EUR)" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	first := rows[1]
	if first[0] != "call_1" || first[3] != "2024-03-01T09:30:00Z" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[4] != "120" || first[5] != "2.00" || first[8] != "0.40" {
		t.Fatalf("unexpected durations/cost: %v", first)
	}
	if first[6] != "Inbound" || first[7] != "Completed" {
		t.Fatalf("unexpected labels: %v", first)
	}

	second := rows[2]
	if second[3] != "" {
		t.Fatalf("expected empty datetime for anchorless call, got %q", second[3])
	}
	if second[7] != "Failed" || second[8] != "0.01" {
		t.Fatalf("unexpected second row: %v", second)
	}
}

func TestWriteCSV_EmptyListStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, 0.20); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleCalls(), 0.20); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Calls")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "call_1" || rows[1][8] != "0.40" {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
}
