// Package export renders admin reports as spreadsheets for download.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"hubtrack/internal/core"
)

const (
	summarySheet = "Summary"
	hubsSheet    = "Hubs"
	cohortsSheet = "Cohorts"
)

// ContentType is the MIME type of the workbook written by WriteAdminReport.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteAdminReport writes report and the cohort overview as an XLSX workbook
// with one sheet each for the summary, the hub rollup and the cohorts.
func WriteAdminReport(w io.Writer, report core.AdminReport, cohorts []core.CohortSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{hubsSheet, cohortsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]any{
		{"Metric", "Value"},
		{"Generated at", report.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Total entrepreneurs", report.TotalEntrepreneurs},
		{"Total businesses", report.TotalBusinesses},
		{"Recent registrations (30 days)", report.RecentRegistrations},
		{"Cohort assignments", report.TotalAssignments},
		{"Payments", report.Payments.Total()},
		{"Paid", report.Payments.Paid},
		{"Pending", report.Payments.Pending},
		{"Unpaid", report.Payments.Unpaid},
		{"Overdue", report.Payments.Overdue},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	hubs := [][]any{{"Hub", "Entrepreneurs", "Active", "Businesses", "Payments", "Paid", "Payment rate %"}}
	for _, h := range report.Hubs {
		hubs = append(hubs, []any{
			string(h.Hub), h.TotalEntrepreneurs, h.ActiveEntrepreneurs,
			h.TotalBusinesses, h.TotalPayments, h.PaidPayments, h.PaymentRate,
		})
	}
	if err := writeRows(f, hubsSheet, hubs); err != nil {
		return err
	}

	rows := [][]any{{"Cohort year", "Hub", "Members", "Active", "Completed"}}
	for _, c := range cohorts {
		rows = append(rows, []any{c.CohortYear, string(c.Hub), c.TotalMembers, c.ActiveMembers, c.CompletedMembers})
	}
	if err := writeRows(f, cohortsSheet, rows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
