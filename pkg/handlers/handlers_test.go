package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/config"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/metrics"
)

var now = time.Date(2024, time.March, 4, 10, 30, 0, 0, time.UTC)

type testServer struct {
	h      *Handler
	router *gin.Engine
	key    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(database.Options{DataPath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := config.New()
	cfg.JWTSecret = "jwt-test"
	cfg.APIMasterSecret = "master-test"
	cfg.Workers = 1

	h, err := New(db, cfg, metrics.NewManager(), nil)
	require.NoError(t, err)
	h.Auth = h.Auth.WithBcryptCost(bcrypt.MinCost)
	h.Now = func() time.Time { return now }

	r := gin.New()
	r.Use(h.RequestLogger())
	h.Routes(r)

	return &testServer{h: h, router: r, key: h.Auth.GenerateHMACKey("tester")}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) api(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.do(t, method, path, s.key, body)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	people := []gin.H{
		{"name": "Ana", "role": "Developer", "team": "Platform", "hours_per_day": 8, "capacity_multiplier": 1, "is_active": true},
		{"name": "Ben", "role": "QA", "team": "Platform", "hours_per_day": 8, "capacity_multiplier": 0.5, "is_active": true, "end_date": "2024-03-01"},
		{"name": "Cleo", "hours_per_day": 8, "capacity_multiplier": 1, "is_active": false},
	}
	for _, p := range people {
		rec := s.api(t, http.MethodPost, "/api/team-members", p)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	items := []gin.H{
		{"issue_key": "CAP-1", "assignee_name": "Ana", "remaining_hours": 40, "start_date": "2024-03-04", "estimated_completion_date": "2024-03-08", "task_status": "IN_PROGRESS"},
		{"issue_key": "CAP-2", "assignee_name": "Ben", "remaining_hours": 30, "start_date": "2024-03-04", "estimated_completion_date": "2024-03-05", "task_status": "NOT_STARTED", "is_blocked": true},
		{"issue_key": "CAP-3", "assignee_name": "Ben", "remaining_hours": 10, "start_date": "2024-02-20", "estimated_completion_date": "2024-03-01", "task_status": "IN_PROGRESS"},
		{"issue_key": "CAP-4", "assignee_name": "Ana", "remaining_hours": 5, "estimated_completion_date": "2024-03-02", "task_status": "COMPLETED"},
	}
	for _, w := range items {
		rec := s.api(t, http.MethodPost, "/api/assignments", w)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/capacity/team-summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/capacity/team-summary", "tester.deadbeef", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/capacity/team-summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestTeamSummary(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/team-summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summaries []struct {
		MemberName  string  `json:"member_name"`
		Capacity    float64 `json:"daily_capacity_hours"`
		Remaining   float64 `json:"total_remaining_hours"`
		ActiveTasks int     `json:"active_tasks"`
		Available   string  `json:"estimated_available_date"`
		Overloaded  bool    `json:"is_overloaded"`
		Utilization float64 `json:"utilization_percentage"`
	}
	decode(t, rec, &summaries)
	require.Len(t, summaries, 2)

	ana := summaries[0]
	assert.Equal(t, "Ana", ana.MemberName)
	assert.Equal(t, 40.0, ana.Remaining)
	assert.Equal(t, 1, ana.ActiveTasks)
	assert.Equal(t, "2024-03-09", ana.Available)
	assert.False(t, ana.Overloaded)
	assert.Equal(t, 100.0, ana.Utilization)

	ben := summaries[1]
	assert.Equal(t, 4.0, ben.Capacity)
	assert.Equal(t, 40.0, ben.Remaining)
	assert.Equal(t, "2024-03-14", ben.Available)
	assert.True(t, ben.Overloaded)
	// 40h over thirteen scheduled dates, eleven of them before today
	assert.Equal(t, 76.92, ben.Utilization)
}

func TestTeamSummary_PinnedDate(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/team-summary?date=2024-03-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []struct {
		Available string `json:"estimated_available_date"`
	}
	decode(t, rec, &summaries)
	require.Len(t, summaries, 2)
	assert.Equal(t, "2024-03-11", summaries[0].Available)

	rec = s.api(t, http.MethodGet, "/api/capacity/team-summary?date=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceAvailability(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/resource-availability?days_ahead=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var forecasts []struct {
		MemberName string             `json:"member_name"`
		Capacity   float64            `json:"daily_capacity"`
		Forecast   map[string]float64 `json:"workload_forecast"`
	}
	decode(t, rec, &forecasts)
	require.Len(t, forecasts, 2)

	assert.Equal(t, map[string]float64{"2024-03-04": 8, "2024-03-05": 8, "2024-03-06": 8}, forecasts[0].Forecast)
	assert.Equal(t, map[string]float64{"2024-03-04": 15, "2024-03-05": 15}, forecasts[1].Forecast)

	rec = s.api(t, http.MethodGet, "/api/capacity/resource-availability?days_ahead=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkloadForecast(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/workload-forecast/Ben", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var w struct {
		AssigneeName string             `json:"assignee_name"`
		ForecastDays int                `json:"forecast_days"`
		Workload     []json.RawMessage  `json:"workload"`
		Total        float64            `json:"total_remaining_hours"`
		Daily        map[string]float64 `json:"daily_workload"`
	}
	decode(t, rec, &w)
	assert.Equal(t, "Ben", w.AssigneeName)
	assert.Equal(t, 14, w.ForecastDays)
	assert.Len(t, w.Workload, 2)
	assert.Equal(t, 40.0, w.Total)
	assert.Equal(t, map[string]float64{"2024-03-04": 15, "2024-03-05": 15}, w.Daily)
}

func TestTeamStatsOverdueBlocked(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/team-stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int64
	decode(t, rec, &stats)
	assert.Equal(t, int64(3), stats["total_members"])
	assert.Equal(t, int64(2), stats["active_members"])
	assert.Equal(t, int64(4), stats["total_assignments"])
	assert.Equal(t, int64(1), stats["overdue_tasks"])
	assert.Equal(t, int64(1), stats["blocked_tasks"])

	rec = s.api(t, http.MethodGet, "/api/capacity/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overdue []struct {
		IssueKey string `json:"issue_key"`
	}
	decode(t, rec, &overdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, "CAP-3", overdue[0].IssueKey)

	rec = s.api(t, http.MethodGet, "/api/capacity/blocked", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var blocked []struct {
		IssueKey string `json:"issue_key"`
	}
	decode(t, rec, &blocked)
	require.Len(t, blocked, 1)
	assert.Equal(t, "CAP-2", blocked[0].IssueKey)
}

func TestRoster(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/team-members/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var available []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	decode(t, rec, &available)
	require.Len(t, available, 1)
	assert.Equal(t, "Ana", available[0].Name)

	rec = s.api(t, http.MethodPost, "/api/team-members", gin.H{"name": "Ana", "hours_per_day": 8, "capacity_multiplier": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.api(t, http.MethodPost, "/api/team-members", gin.H{"role": "Dev"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := fmt.Sprintf("/api/team-members/%d", available[0].ID)
	rec = s.api(t, http.MethodPut, path, gin.H{"name": "Ana", "hours_per_day": 6, "capacity_multiplier": 1, "is_active": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.api(t, http.MethodPut, "/api/team-members/999", gin.H{"name": "Nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.api(t, http.MethodGet, "/api/assignments/assignee/Ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		ID       uint   `json:"id"`
		IssueKey string `json:"issue_key"`
	}
	decode(t, rec, &items)
	assert.Len(t, items, 2)

	rec = s.api(t, http.MethodPost, "/api/assignments", gin.H{"issue_key": "CAP-9", "assignee_name": "Ana", "task_status": "SLEEPING"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path = fmt.Sprintf("/api/assignments/%d", items[0].ID)
	rec = s.api(t, http.MethodPut, path, gin.H{"issue_key": "CAP-1", "assignee_name": "Ana", "remaining_hours": 0, "task_status": "COMPLETED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.api(t, http.MethodGet, "/api/assignments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	assert.Len(t, items, 4)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.api(t, http.MethodGet, "/api/capacity/export/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "team_capacity_2024-03-04.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Member Name", records[0][0])
	assert.Equal(t, "Ana", records[1][0])
	assert.Equal(t, "8.00", records[1][3])
}

func TestEvaluate(t *testing.T) {
	s := newTestServer(t)

	body := gin.H{
		"today":      "2024-03-04",
		"days_ahead": 2,
		"people": []gin.H{
			{"name": "Ana", "hours_per_day": 6, "capacity_multiplier": 1, "is_active": true},
		},
		"items": []gin.H{
			{"issue_key": "X-1", "assignee_name": "Ana", "remaining_hours": 10, "estimated_completion_date": "2024-03-06", "task_status": "IN_PROGRESS"},
		},
	}
	rec := s.api(t, http.MethodPost, "/api/capacity/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Today     string `json:"today"`
		Summaries []struct {
			Remaining   float64 `json:"total_remaining_hours"`
			Available   string  `json:"estimated_available_date"`
			Utilization float64 `json:"utilization_percentage"`
		} `json:"summaries"`
		Forecasts []struct {
			Forecast map[string]float64 `json:"workload_forecast"`
		} `json:"forecasts"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "2024-03-04", resp.Today)
	require.Len(t, resp.Summaries, 1)
	assert.Equal(t, 10.0, resp.Summaries[0].Remaining)
	assert.Equal(t, "2024-03-06", resp.Summaries[0].Available)
	assert.Equal(t, 55.56, resp.Summaries[0].Utilization)
	assert.Equal(t, map[string]float64{"2024-03-04": 3.33, "2024-03-05": 3.33}, resp.Forecasts[0].Forecast)

	var members []json.RawMessage
	rec = s.api(t, http.MethodGet, "/api/team-members", nil)
	decode(t, rec, &members)
	assert.Empty(t, members)
}

func TestSync(t *testing.T) {
	s := newTestServer(t)

	issues := []gin.H{
		{"key": "CAP-1", "assignee": "Dana Scully", "status": "In Progress", "story_points": 3},
		{"key": "CAP-2", "assignee": "Unassigned", "status": "To Do"},
		{"key": "CAP-3", "assignee": "Dana Scully", "status": "Done"},
	}
	rec := s.api(t, http.MethodPost, "/api/capacity/sync", issues)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result map[string]int
	decode(t, rec, &result)
	assert.Equal(t, 2, result["active_issues"])
	assert.Equal(t, 1, result["members_created"])
	assert.Equal(t, 1, result["assignments_created"])

	rec = s.api(t, http.MethodGet, "/api/assignments/assignee/Dana%20Scully", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		Estimated  float64 `json:"estimated_hours"`
		Completion string  `json:"estimated_completion_date"`
	}
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, 16.0, items[0].Estimated)
	assert.Equal(t, "2024-03-06", items[0].Completion)
}

func TestValidateInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.api(t, http.MethodPost, "/api/validate", gin.H{"people": []gin.H{}})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Valid    bool     `json:"valid"`
		Error    string   `json:"error"`
		Warnings []string `json:"warnings"`
	}
	decode(t, rec, &resp)
	assert.False(t, resp.Valid)

	rec = s.api(t, http.MethodPost, "/api/validate", gin.H{"people": []gin.H{{"name": "Ana"}, {"name": "Ana"}}})
	decode(t, rec, &resp)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Error, "Duplicate")

	rec = s.api(t, http.MethodPost, "/api/validate", gin.H{
		"people": []gin.H{{"name": "Ana", "hours_per_day": 8, "capacity_multiplier": 1}},
		"items": []gin.H{
			{"issue_key": "X-1", "assignee_name": "Zed", "estimated_completion_date": "2024-03-06"},
			{"issue_key": "X-2", "assignee_name": "Ana", "start_date": "2024-03-08", "estimated_completion_date": "2024-03-06"},
		},
	})
	resp = struct {
		Valid    bool     `json:"valid"`
		Error    string   `json:"error"`
		Warnings []string `json:"warnings"`
	}{}
	decode(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Len(t, resp.Warnings, 2)
}

func TestAdminKeysAndUsage(t *testing.T) {
	s := newTestServer(t)
	created, err := s.h.Auth.EnsureAdminExists(s.h.DB, "admin", "admin123")
	require.NoError(t, err)
	require.True(t, created)

	rec := s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"access_token"`
	}
	decode(t, rec, &login)

	rec = s.do(t, http.MethodGet, "/admin/keys", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/keys", login.Token, gin.H{"name": "dashboard", "rate_limit": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var key struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	decode(t, rec, &key)

	rec = s.do(t, http.MethodGet, "/api/capacity/team-summary", key.Key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/capacity/team-summary", key.Key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/capacity/team-summary", key.Key, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/admin/usage/%d", key.ID), login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var usage database.UsageReport
	decode(t, rec, &usage)
	assert.Equal(t, "dashboard", usage.KeyName)
	assert.Equal(t, 2, usage.RateLimit)
	require.Len(t, usage.History, 1)
	assert.Equal(t, 2, usage.History[0].RequestCount)
	assert.Equal(t, "2024-03-04", usage.History[0].Date)

	rec = s.do(t, http.MethodGet, "/admin/usage/999", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, fmt.Sprintf("/admin/keys/%d", key.ID), login.Token, gin.H{"rate_limit": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	// the key keeps working under its new limit
	rec = s.do(t, http.MethodGet, "/api/capacity/team-summary", key.Key, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/usage", key.Key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine database.UsageReport
	decode(t, rec, &mine)
	assert.Equal(t, key.ID, mine.KeyID)
	assert.Equal(t, "dashboard", mine.KeyName)
	assert.Equal(t, 100, mine.RateLimit)
	assert.Equal(t, int64(3), mine.Totals.Requests)

	rec = s.do(t, http.MethodGet, "/admin/keys", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), key.Key)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", key.ID), login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
