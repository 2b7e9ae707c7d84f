// Package export renders capacity results as CSV, terminal tables and JSON.
// Every figure is rounded to two decimals.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// SummaryHeader is the column layout of the team summary export
var SummaryHeader = []string{
	"Member Name",
	"Role",
	"Team",
	"Daily Capacity Hours",
	"Total Remaining Hours",
	"Active Tasks",
	"Estimated Available Date",
	"Is Overloaded",
	"Utilization Percentage",
}

func formatHours(v float64) string {
	return strconv.FormatFloat(models.Round2(v), 'f', 2, 64)
}

func formatDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func summaryRecord(s models.MemberCapacitySummary) []string {
	return []string{
		s.MemberName,
		s.Role,
		s.Team,
		formatHours(s.DailyCapacityHours),
		formatHours(s.TotalRemainingHours),
		strconv.Itoa(s.ActiveTasks),
		formatDate(s.EstimatedAvailableDate),
		strconv.FormatBool(s.Overloaded),
		formatHours(s.UtilizationPercentage),
	}
}

// WriteSummaryCSV writes one row per member summary
func WriteSummaryCSV(w io.Writer, summaries []models.MemberCapacitySummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SummaryHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range summaries {
		if err := writer.Write(summaryRecord(s)); err != nil {
			return fmt.Errorf("write csv row %s: %w", s.MemberName, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteForecastCSV writes one row per member and forecast date
func WriteForecastCSV(w io.Writer, forecasts []models.ResourceAvailability) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Member Name", "Date", "Hours", "Daily Capacity"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range forecasts {
		for _, d := range f.WorkloadForecast.Dates() {
			record := []string{
				f.MemberName,
				d.String(),
				formatHours(f.WorkloadForecast[d]),
				formatHours(f.DailyCapacity),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("write csv row %s: %w", f.MemberName, err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

// SummaryTable renders the team summary for a terminal
func SummaryTable(summaries []models.MemberCapacitySummary) string {
	tw := newTable()
	tw.AppendHeader(table.Row{
		"MEMBER",
		"TEAM",
		"CAPACITY/DAY",
		"REMAINING",
		"TASKS",
		"AVAILABLE",
		"OVERLOADED",
		"UTILIZATION",
	})
	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.MemberName,
			s.Team,
			formatHours(s.DailyCapacityHours),
			formatHours(s.TotalRemainingHours),
			s.ActiveTasks,
			formatDate(s.EstimatedAvailableDate),
			s.Overloaded,
			formatHours(s.UtilizationPercentage) + "%",
		})
	}
	return tw.Render()
}

// ForecastTable renders a forecast with one row per date and one column per member
func ForecastTable(forecasts []models.ResourceAvailability) string {
	header := table.Row{"DATE"}
	all := make(models.DailyWorkload)
	for _, f := range forecasts {
		header = append(header, f.MemberName)
		for d := range f.WorkloadForecast {
			all[d] = 0
		}
	}

	tw := newTable()
	tw.AppendHeader(header)
	for _, d := range all.Dates() {
		row := table.Row{d.String()}
		for _, f := range forecasts {
			row = append(row, formatHours(f.WorkloadForecast[d]))
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// Report is the JSON document produced by WriteJSON
type Report struct {
	Today     models.Date                    `json:"today"`
	Summaries []models.MemberCapacitySummary `json:"summaries"`
	Forecasts []models.ResourceAvailability  `json:"forecasts,omitempty"`
}

// NewReport builds a report with every figure rounded
func NewReport(today models.Date, summaries []models.MemberCapacitySummary, forecasts []models.ResourceAvailability) Report {
	r := Report{
		Today:     today,
		Summaries: make([]models.MemberCapacitySummary, len(summaries)),
		Forecasts: make([]models.ResourceAvailability, len(forecasts)),
	}
	for i, s := range summaries {
		r.Summaries[i] = s.Rounded()
	}
	for i, f := range forecasts {
		r.Forecasts[i] = f.Rounded()
	}
	return r
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, report Report) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
