// internal/reporting/export.go
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"combatrix/internal/members"
)

// Sheet names of the generated workbook.
const (
	SummarySheet  = "Monthly Summary"
	DetailedSheet = "Detailed Memberships"
)

var summaryColumns = []string{
	"Month", "New Members", "New Memberships", "Total Revenue",
	"Combatrix Share", "Fitshala Share", "Member Names", "Membership Details",
}

var detailedColumns = []string{
	"Member Name", "Member Email", "Member Status", "Member Join Date",
	"Membership Start", "Membership End", "Duration (Days)", "Month",
	"Price", "Combatrix Share", "Fitshala Share", "Is Currently Active", "Created At",
}

// ReportFilename builds the output filename, defaulting to a timestamped
// name when no custom name is given.
func ReportFilename(custom string, now time.Time) string {
	if custom != "" {
		return custom + ".xlsx"
	}
	return fmt.Sprintf("mma_gym_report_%s.xlsx", now.Format("20060102_150405"))
}

// WriteExcel renders the two report tables into an xlsx workbook, one sheet
// per table with auto-sized columns, and returns the written path. Monetary
// decimals become floats here, at the serialization boundary only.
func WriteExcel(outputDir, filename string, summary []MonthRow, details []DetailRow) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outputDir, filename)

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), SummarySheet)
	if _, err := f.NewSheet(DetailedSheet); err != nil {
		return "", err
	}

	if err := writeSummarySheet(f, summary); err != nil {
		return "", err
	}
	if err := writeDetailedSheet(f, details); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

func writeSummarySheet(f *excelize.File, rows []MonthRow) error {
	if err := writeRow(f, SummarySheet, 1, toCells(summaryColumns)); err != nil {
		return err
	}
	for i, row := range rows {
		cells := []interface{}{
			row.Month,
			row.NewMembers,
			row.NewMemberships,
			row.TotalRevenue.InexactFloat64(),
			row.CombatrixShare.InexactFloat64(),
			row.FitshalaShare.InexactFloat64(),
			joinOrNone(row.MemberNames, row.Month != TotalLabel),
			joinOrNone(row.MembershipDetails, row.Month != TotalLabel),
		}
		if err := writeRow(f, SummarySheet, i+2, cells); err != nil {
			return err
		}
	}
	return autoSizeColumns(f, SummarySheet, len(summaryColumns))
}

func writeDetailedSheet(f *excelize.File, rows []DetailRow) error {
	if err := writeRow(f, DetailedSheet, 1, toCells(detailedColumns)); err != nil {
		return err
	}
	for i, row := range rows {
		cells := []interface{}{
			row.MemberName,
			row.MemberEmail,
			row.MemberStatus,
			row.MemberJoinDate.Format(members.DateLayout),
			row.StartDate.Format(members.DateLayout),
			row.EndDate.Format(members.DateLayout),
			row.DurationDays,
			row.Month,
			row.Price.InexactFloat64(),
			row.CombatrixShare.InexactFloat64(),
			row.FitshalaShare.InexactFloat64(),
			row.IsCurrentlyActive,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, DetailedSheet, i+2, cells); err != nil {
			return err
		}
	}
	return autoSizeColumns(f, DetailedSheet, len(detailedColumns))
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

// autoSizeColumns widens each column to its longest rendered value, capped
// at 50 characters.
func autoSizeColumns(f *excelize.File, sheet string, columns int) error {
	grid, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for col := 1; col <= columns; col++ {
		maxLen := 0
		for _, row := range grid {
			if col-1 < len(row) && len(row[col-1]) > maxLen {
				maxLen = len(row[col-1])
			}
		}
		width := float64(maxLen + 2)
		if width > 50 {
			width = 50
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func joinOrNone(values []string, emptyAsNone bool) string {
	if len(values) == 0 {
		if emptyAsNone {
			return "None"
		}
		return ""
	}
	return strings.Join(values, ", ")
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
