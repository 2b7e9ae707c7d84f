package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

var today = models.NewDate(2024, time.March, 4)

func summaries() []models.MemberCapacitySummary {
	available := today.AddDays(3)
	return []models.MemberCapacitySummary{
		{
			MemberName:             "Ana",
			Role:                   "Developer",
			Team:                   "Platform",
			DailyCapacityHours:     6.666666,
			TotalRemainingHours:    20,
			ActiveTasks:            2,
			EstimatedAvailableDate: &available,
			UtilizationPercentage:  33.3333,
		},
		{
			MemberName:          "Ben",
			Team:                "Platform",
			DailyCapacityHours:  0,
			TotalRemainingHours: 5,
			ActiveTasks:         1,
			Overloaded:          true,
		},
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, summaries()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, SummaryHeader, records[0])
	assert.Equal(t, []string{"Ana", "Developer", "Platform", "6.67", "20.00", "2", "2024-03-07", "false", "33.33"}, records[1])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "true", records[2][7])
}

func TestWriteForecastCSV(t *testing.T) {
	forecast := models.DailyWorkload{today.AddDays(1): 1.005, today: 2.5}
	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, []models.ResourceAvailability{
		{MemberName: "Ana", DailyCapacity: 8, WorkloadForecast: forecast},
	}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Ana", "2024-03-04", "2.50", "8.00"}, records[1])
	assert.Equal(t, "2024-03-05", records[2][1])
}

func TestSummaryTable(t *testing.T) {
	out := SummaryTable(summaries())
	assert.True(t, strings.Contains(out, "MEMBER"))
	assert.True(t, strings.Contains(out, "Ana"))
	assert.True(t, strings.Contains(out, "33.33%"))
}

func TestForecastTable(t *testing.T) {
	out := ForecastTable([]models.ResourceAvailability{
		{MemberName: "Ana", WorkloadForecast: models.DailyWorkload{today: 4}},
		{MemberName: "Ben", WorkloadForecast: models.DailyWorkload{today.AddDays(1): 2}},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.Contains(lines[1], "2024-03-04"))
	assert.True(t, strings.Contains(lines[1], "4.00"))
	assert.True(t, strings.Contains(lines[2], "2.00"))
}

func TestWriteJSON(t *testing.T) {
	report := NewReport(today, summaries(), []models.ResourceAvailability{
		{MemberName: "Ana", DailyCapacity: 6.666666, WorkloadForecast: models.DailyWorkload{today: 3.14159}},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	var decoded struct {
		Today     string `json:"today"`
		Summaries []struct {
			MemberName  string  `json:"member_name"`
			Capacity    float64 `json:"daily_capacity_hours"`
			Utilization float64 `json:"utilization_percentage"`
		} `json:"summaries"`
		Forecasts []struct {
			Forecast map[string]float64 `json:"workload_forecast"`
		} `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2024-03-04", decoded.Today)
	require.Len(t, decoded.Summaries, 2)
	assert.Equal(t, 6.67, decoded.Summaries[0].Capacity)
	assert.Equal(t, 33.33, decoded.Summaries[0].Utilization)
	assert.Equal(t, 3.14, decoded.Forecasts[0].Forecast["2024-03-04"])
}
