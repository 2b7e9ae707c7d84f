package models

import (
	"math"
	"sort"
)

// TaskStatus is the lifecycle state of a work item
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NOT_STARTED"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusOnHold     TaskStatus = "ON_HOLD"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// ActiveStatuses lists the statuses that still consume capacity
var ActiveStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusOnHold, StatusBlocked}

// Active reports whether the status has not reached a terminal state
func (s TaskStatus) Active() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusOnHold, StatusBlocked:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses
func (s TaskStatus) Valid() bool {
	return s.Active() || s == StatusCompleted || s == StatusCancelled
}

// Person is a roster member whose capacity is planned
type Person struct {
	ID                 uint    `json:"id,omitempty"`
	Name               string  `json:"name" binding:"required"`
	Email              string  `json:"email,omitempty"`
	Role               string  `json:"role,omitempty"`
	Team               string  `json:"team,omitempty"`
	HoursPerDay        float64 `json:"hours_per_day"`
	CapacityMultiplier float64 `json:"capacity_multiplier"`
	Active             bool    `json:"is_active"`
	StartDate          *Date   `json:"start_date,omitempty"`
	EndDate            *Date   `json:"end_date,omitempty"`
	Skills             string  `json:"skills,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

// DailyCapacity is the effective hours per day after the multiplier
func (p Person) DailyCapacity() float64 {
	c := p.HoursPerDay * p.CapacityMultiplier
	if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return c
}

// AvailableOn reports whether the person is active and not past their end date
func (p Person) AvailableOn(d Date) bool {
	if !p.Active {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(d)
}

// WorkItem is an assignment of tracked work to a person
type WorkItem struct {
	ID                      uint       `json:"id,omitempty"`
	IssueKey                string     `json:"issue_key" binding:"required"`
	AssigneeName            string     `json:"assignee_name" binding:"required"`
	EstimatedHours          *float64   `json:"estimated_hours,omitempty"`
	ActualHours             *float64   `json:"actual_hours,omitempty"`
	RemainingHours          *float64   `json:"remaining_hours"`
	StartDate               *Date      `json:"start_date,omitempty"`
	EstimatedCompletionDate *Date      `json:"estimated_completion_date"`
	ActualCompletionDate    *Date      `json:"actual_completion_date,omitempty"`
	PercentComplete         float64    `json:"percent_complete"`
	Status                  TaskStatus `json:"task_status"`
	Blocked                 bool       `json:"is_blocked"`
	BlockingReason          string     `json:"blocking_reason,omitempty"`
	Notes                   string     `json:"notes,omitempty"`
}

// Active reports whether the item still consumes capacity
func (w WorkItem) Active() bool { return w.Status.Active() }

// Remaining returns the remaining hours with unknown or negative values treated as zero
func (w WorkItem) Remaining() float64 {
	if w.RemainingHours == nil {
		return 0
	}
	r := *w.RemainingHours
	if r <= 0 || math.IsNaN(r) {
		return 0
	}
	return r
}

// Hours returns a pointer to h, for building items in literals
func Hours(h float64) *float64 { return &h }

// DailyWorkload maps a calendar date to the hours scheduled on it
type DailyWorkload map[Date]float64

// Add accumulates hours on a date
func (w DailyWorkload) Add(d Date, hours float64) {
	w[d] += hours
}

// Total returns the sum of every date's hours
func (w DailyWorkload) Total() float64 {
	var sum float64
	for _, h := range w {
		sum += h
	}
	return sum
}

// Dates returns the dates in ascending order
func (w DailyWorkload) Dates() []Date {
	dates := make([]Date, 0, len(w))
	for d := range w {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Window returns the entries falling within [from, to] inclusive
func (w DailyWorkload) Window(from, to Date) DailyWorkload {
	out := make(DailyWorkload)
	for d, h := range w {
		if d.Before(from) || d.After(to) {
			continue
		}
		out[d] = h
	}
	return out
}

// Through returns the entries dated on or before to
func (w DailyWorkload) Through(to Date) DailyWorkload {
	out := make(DailyWorkload)
	for d, h := range w {
		if !d.After(to) {
			out[d] = h
		}
	}
	return out
}

// Rounded returns a copy with every value rounded to two decimals
func (w DailyWorkload) Rounded() DailyWorkload {
	out := make(DailyWorkload, len(w))
	for d, h := range w {
		out[d] = Round2(h)
	}
	return out
}

// MemberCapacitySummary is the per-person capacity snapshot
type MemberCapacitySummary struct {
	MemberName             string     `json:"member_name"`
	Role                   string     `json:"role,omitempty"`
	Team                   string     `json:"team,omitempty"`
	DailyCapacityHours     float64    `json:"daily_capacity_hours"`
	TotalRemainingHours    float64    `json:"total_remaining_hours"`
	ActiveTasks            int        `json:"active_tasks"`
	EstimatedAvailableDate *Date      `json:"estimated_available_date,omitempty"`
	UpcomingDeadlines      []WorkItem `json:"upcoming_deadlines"`
	Overloaded             bool       `json:"is_overloaded"`
	UtilizationPercentage  float64    `json:"utilization_percentage"`
}

// Rounded returns a copy with hour and percentage fields rounded for presentation
func (s MemberCapacitySummary) Rounded() MemberCapacitySummary {
	s.DailyCapacityHours = Round2(s.DailyCapacityHours)
	s.TotalRemainingHours = Round2(s.TotalRemainingHours)
	s.UtilizationPercentage = Round2(s.UtilizationPercentage)
	return s
}

// ResourceAvailability is a person's projected daily workload over a horizon
type ResourceAvailability struct {
	MemberName       string        `json:"member_name"`
	Role             string        `json:"role,omitempty"`
	Team             string        `json:"team,omitempty"`
	DailyCapacity    float64       `json:"daily_capacity"`
	WorkloadForecast DailyWorkload `json:"workload_forecast"`
}

// Rounded returns a copy with the forecast rounded for presentation
func (r ResourceAvailability) Rounded() ResourceAvailability {
	r.DailyCapacity = Round2(r.DailyCapacity)
	r.WorkloadForecast = r.WorkloadForecast.Rounded()
	return r
}

// AssigneeWorkload is the workload forecast for a single assignee
type AssigneeWorkload struct {
	AssigneeName        string        `json:"assignee_name"`
	ForecastDays        int           `json:"forecast_days"`
	Workload            []WorkItem    `json:"workload"`
	TotalRemainingHours float64       `json:"total_remaining_hours"`
	DailyWorkload       DailyWorkload `json:"daily_workload"`
}

// TeamStats holds roster and assignment counters
type TeamStats struct {
	TotalMembers     int64 `json:"total_members"`
	ActiveMembers    int64 `json:"active_members"`
	TotalAssignments int64 `json:"total_assignments"`
	OverdueTasks     int64 `json:"overdue_tasks"`
	BlockedTasks     int64 `json:"blocked_tasks"`
}

// EvaluateInput is an ad-hoc roster and work item set evaluated without persistence
type EvaluateInput struct {
	People    []Person   `json:"people"`
	Items     []WorkItem `json:"items"`
	Today     *Date      `json:"today,omitempty"`
	DaysAhead int        `json:"days_ahead,omitempty"`
}

// EvaluateResponse is the result of evaluating an EvaluateInput
type EvaluateResponse struct {
	Today     Date                    `json:"today"`
	Summaries []MemberCapacitySummary `json:"summaries"`
	Forecasts []ResourceAvailability  `json:"forecasts"`
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
