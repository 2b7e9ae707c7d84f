package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/capacity"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/export"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/planner"
)

func roundedSummaries(summaries []models.MemberCapacitySummary) []models.MemberCapacitySummary {
	out := make([]models.MemberCapacitySummary, len(summaries))
	for i, s := range summaries {
		out[i] = s.Rounded()
	}
	return out
}

func roundedForecasts(forecasts []models.ResourceAvailability) []models.ResourceAvailability {
	out := make([]models.ResourceAvailability, len(forecasts))
	for i, f := range forecasts {
		out[i] = f.Rounded()
	}
	return out
}

func itemCount(summaries []models.MemberCapacitySummary) int {
	n := 0
	for _, s := range summaries {
		n += s.ActiveTasks
	}
	return n
}

// TeamSummary returns the capacity summary of every active member
func (h *Handler) TeamSummary(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summaries, err := h.Planner.TeamSummary(c.Request.Context(), today)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(summaries), itemCount(summaries))
	c.JSON(http.StatusOK, roundedSummaries(summaries))
}

// ResourceAvailability returns each active member's daily workload forecast
func (h *Handler) ResourceAvailability(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := daysAhead(c, h.Config.ForecastDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	forecasts, err := h.Planner.ResourceAvailability(c.Request.Context(), today, days)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(forecasts), 0)
	c.JSON(http.StatusOK, roundedForecasts(forecasts))
}

// WorkloadForecast returns the workload of a single assignee
func (h *Handler) WorkloadForecast(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := daysAhead(c, h.Config.WorkloadDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := h.Planner.AssigneeWorkload(c.Request.Context(), c.Param("name"), today, days)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, 1, len(w.Workload))
	w.TotalRemainingHours = models.Round2(w.TotalRemainingHours)
	w.DailyWorkload = w.DailyWorkload.Rounded()
	c.JSON(http.StatusOK, w)
}

// TeamStats returns roster and assignment counters
func (h *Handler) TeamStats(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.Store.TeamStats(c.Request.Context(), today)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// OverdueTasks lists active assignments due on or before today
func (h *Handler) OverdueTasks(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.Store.OverdueAssignments(c.Request.Context(), today)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// BlockedTasks lists blocked assignments
func (h *Handler) BlockedTasks(c *gin.Context) {
	items, err := h.Store.BlockedAssignments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ExportCSV returns the team summary as a CSV attachment
func (h *Handler) ExportCSV(c *gin.Context) {
	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summaries, err := h.Planner.TeamSummary(c.Request.Context(), today)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSummaryCSV(&buf, summaries); err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(summaries), itemCount(summaries))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=team_capacity_%s.csv", today))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Evaluate computes summaries and forecasts for the posted roster without
// persisting anything
func (h *Handler) Evaluate(c *gin.Context) {
	var input models.EvaluateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	today := models.DateOf(h.Now())
	if input.Today != nil && !input.Today.IsZero() {
		today = *input.Today
	}
	days := input.DaysAhead
	if days <= 0 {
		days = h.Config.ForecastDays
	}

	resp, err := planner.Evaluate(c.Request.Context(), input.People, input.Items, today, days, h.Config.Workers,
		capacity.WithUtilizationWindow(h.Config.UtilizationWindowDays))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(input.People), len(input.Items))
	resp.Summaries = roundedSummaries(resp.Summaries)
	resp.Forecasts = roundedForecasts(resp.Forecasts)
	c.JSON(http.StatusOK, resp)
}

// Sync imports issue tracker issues as members and assignments
func (h *Handler) Sync(c *gin.Context) {
	var issues []models.Issue
	if err := c.ShouldBindJSON(&issues); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	today, err := h.today(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Syncer.Sync(c.Request.Context(), issues, today)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, result.Assignees, result.ActiveIssues)
	c.JSON(http.StatusOK, result)
}
