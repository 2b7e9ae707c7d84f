package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
)

const team = `
today: 2024-03-04
people:
  - name: Ana
    team: Platform
    hours_per_day: 8
  - name: Ben
    team: Platform
    hours_per_day: 8
    capacity_multiplier: 0.5
assignments:
  - issue_key: CAP-1
    assignee: Ana
    remaining_hours: 40
    start_date: 2024-03-04
    due_date: 2024-03-08
    status: IN_PROGRESS
  - issue_key: CAP-2
    assignee: Ben
    remaining_hours: 30
    due_date: 2024-03-05
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(team), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	out, err := run(t, "summary", "--seed", writeSeed(t))
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Capacity as of 2024-03-04"))
	assert.True(t, strings.Contains(out, "Ana"))
	assert.True(t, strings.Contains(out, "2024-03-09"))

	out, err = run(t, "summary", "--seed", writeSeed(t), "-o", "csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Ben", records[2][0])
	assert.Equal(t, "true", records[2][7])
}

func TestSummaryCommand_TodayOverride(t *testing.T) {
	out, err := run(t, "summary", "--seed", writeSeed(t), "--today", "2024-03-06", "-o", "json")
	require.NoError(t, err)

	var report struct {
		Today     string `json:"today"`
		Summaries []struct {
			Available string `json:"estimated_available_date"`
		} `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "2024-03-06", report.Today)
	require.Len(t, report.Summaries, 2)
	assert.Equal(t, "2024-03-11", report.Summaries[0].Available)
}

func TestForecastCommand(t *testing.T) {
	out, err := run(t, "forecast", "--seed", writeSeed(t), "--days", "2", "--person", "Ben", "-o", "csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Ben", "2024-03-04", "15.00", "4.00"}, records[1])

	_, err = run(t, "forecast", "--seed", writeSeed(t), "--person", "Nobody")
	assert.Error(t, err)

	_, err = run(t, "forecast", "--seed", writeSeed(t), "--days", "-1")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	_, err := run(t, "export", "--seed", writeSeed(t), "--format", "json", "--days", "3", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report struct {
		Forecasts []struct {
			MemberName string             `json:"member_name"`
			Forecast   map[string]float64 `json:"workload_forecast"`
		} `json:"forecasts"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Forecasts, 2)
	assert.Len(t, report.Forecasts[0].Forecast, 3)

	_, err = run(t, "export", "--seed", writeSeed(t), "--format", "xml")
	assert.Error(t, err)

	_, err = run(t, "export")
	assert.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	cfg := config.New()
	_, err := generateKey(cfg, "dashboard")
	assert.Error(t, err)

	cfg.APIMasterSecret = "master"
	key, err := generateKey(cfg, "dashboard")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "dashboard."))

	_, err = generateKey(cfg, "a.b")
	assert.Error(t, err)
}
