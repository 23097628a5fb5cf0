// Package export renders call lists as downloadable CSV and XLSX files.
// Costs in exports are recomputed from duration at the current rate so the
// file always matches the dashboard figures.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"calldash/internal/calls"
	"calldash/internal/pricing"
)

var header = []string{
	"ID", "From", "To", "Date/Time", "Duration (seconds)", "Duration (minutes)",
	"Direction", "Status", "Cost (EUR)",
}

// Row flattens one call into export cells, shared by both formats.
func Row(c calls.Call, ratePerMinute float64) []string {
	datetime := ""
	if anchor, ok := c.Anchor(); ok {
		datetime = anchor.UTC().Format(time.RFC3339)
	}
	return []string{
		c.ExternalID,
		c.FromNumber,
		c.ToNumber,
		datetime,
		strconv.Itoa(c.DurationSeconds),
		formatAmount(pricing.Minutes(c.DurationSeconds)),
		directionLabel(c.Direction),
		statusLabel(c.Status),
		formatAmount(pricing.CallCost(c.DurationSeconds, ratePerMinute)),
	}
}

// WriteCSV streams the call list as CSV, header first.
func WriteCSV(w io.Writer, in []calls.Call, ratePerMinute float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range in {
		if err := cw.Write(Row(c, ratePerMinute)); err != nil {
			return fmt.Errorf("write csv row %s: %w", c.ExternalID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the call list as a single-sheet workbook.
func WriteXLSX(w io.Writer, in []calls.Call, ratePerMinute float64) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Calls"
	f.SetSheetName("Sheet1", sheet)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", endHeader, bold); err != nil {
		return err
	}

	for i, c := range in {
		for col, value := range Row(c, ratePerMinute) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("xlsx row %s: %w", c.ExternalID, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func directionLabel(d calls.Direction) string {
	switch d {
	case calls.DirectionInbound:
		return "Inbound"
	case calls.DirectionOutbound:
		return "Outbound"
	}
	return string(d)
}

func statusLabel(s calls.Status) string {
	switch s {
	case calls.StatusCompleted:
		return "Completed"
	case calls.StatusFailed:
		return "Failed"
	case calls.StatusInProgress:
		return "In Progress"
	}
	return string(s)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
