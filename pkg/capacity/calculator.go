package capacity

import (
	"math"
	"sort"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// DefaultUtilizationWindow is how many days ahead of today utilization looks
const DefaultUtilizationWindow = 30

// Calculator evaluates capacity figures relative to a fixed "today"
type Calculator struct {
	today             models.Date
	utilizationWindow int
}

// Option configures a Calculator
type Option func(*Calculator)

// WithUtilizationWindow overrides the number of days ahead used for utilization
func WithUtilizationWindow(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.utilizationWindow = days
		}
	}
}

// NewCalculator creates a calculator anchored at today
func NewCalculator(today models.Date, opts ...Option) *Calculator {
	c := &Calculator{
		today:             today,
		utilizationWindow: DefaultUtilizationWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today returns the date the calculator is anchored at
func (c *Calculator) Today() models.Date {
	return c.today
}

// ItemWorkload spreads a single item over its own date span.
// A missing start date defaults to today; a missing completion date yields nothing.
func (c *Calculator) ItemWorkload(item models.WorkItem) models.DailyWorkload {
	if item.EstimatedCompletionDate == nil {
		return make(models.DailyWorkload)
	}
	start := c.today
	if item.StartDate != nil && !item.StartDate.IsZero() {
		start = *item.StartDate
	}
	return Spread(item.Remaining(), start, *item.EstimatedCompletionDate)
}

// DailyWorkload merges the spread of every active item
func (c *Calculator) DailyWorkload(items []models.WorkItem) models.DailyWorkload {
	workloads := make([]models.DailyWorkload, 0, len(items))
	for _, item := range items {
		if item.Active() {
			workloads = append(workloads, c.ItemWorkload(item))
		}
	}
	return Merge(workloads...)
}

// Forecast returns the person's merged daily workload. Shares use each item's
// full span; use Availability to report only a horizon.
func (c *Calculator) Forecast(items []models.WorkItem) models.DailyWorkload {
	return c.DailyWorkload(items)
}

// Availability reports the forecast for the first days days starting today
func (c *Calculator) Availability(person models.Person, items []models.WorkItem, days int) models.ResourceAvailability {
	forecast := make(models.DailyWorkload)
	if days > 0 {
		forecast = c.Forecast(items).Window(c.today, c.today.AddDays(days-1))
	}
	return models.ResourceAvailability{
		MemberName:       person.Name,
		Role:             person.Role,
		Team:             person.Team,
		DailyCapacity:    person.DailyCapacity(),
		WorkloadForecast: forecast,
	}
}

// DaysToComplete is the whole number of days needed to burn down total hours.
// ok is false when there is work but no capacity to do it.
func DaysToComplete(totalHours, dailyCapacity float64) (days int, ok bool) {
	if totalHours <= 0 {
		return 0, true
	}
	if dailyCapacity <= 0 {
		return 0, false
	}
	return int(math.Ceil(totalHours / dailyCapacity)), true
}

// IsOverloaded reports whether any single active item needs more than
// dailyCapacity hours per day to meet its own deadline. Items already past
// due with hours left always count as overloaded.
func (c *Calculator) IsOverloaded(dailyCapacity float64, items []models.WorkItem) bool {
	for _, item := range items {
		if !item.Active() || item.RemainingHours == nil || item.EstimatedCompletionDate == nil {
			continue
		}
		remaining := item.Remaining()
		daysAvailable := c.today.DaysUntil(*item.EstimatedCompletionDate) + 1
		if daysAvailable <= 0 {
			if remaining > 0 {
				return true
			}
			continue
		}
		if remaining/float64(daysAvailable) > dailyCapacity {
			return true
		}
	}
	return false
}

// Utilization is the average daily load over every scheduled date up to the
// end of the utilization window, as a percentage of dailyCapacity capped at 100.
// Load already behind today still counts.
func (c *Calculator) Utilization(dailyCapacity float64, items []models.WorkItem) float64 {
	if dailyCapacity <= 0 {
		return 0
	}
	window := c.DailyWorkload(items).Through(c.today.AddDays(c.utilizationWindow))
	if len(window) == 0 {
		return 0
	}
	average := window.Total() / float64(len(window))
	return math.Min(100, average/dailyCapacity*100)
}

// UpcomingDeadlines returns active items due strictly after today, earliest first
func (c *Calculator) UpcomingDeadlines(items []models.WorkItem) []models.WorkItem {
	upcoming := make([]models.WorkItem, 0)
	for _, item := range items {
		if !item.Active() || item.EstimatedCompletionDate == nil {
			continue
		}
		if item.EstimatedCompletionDate.After(c.today) {
			upcoming = append(upcoming, item)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].EstimatedCompletionDate.Before(*upcoming[j].EstimatedCompletionDate)
	})
	return upcoming
}

// MemberSummary reduces a person's work items to a capacity summary.
// Completed and cancelled items are ignored.
func (c *Calculator) MemberSummary(person models.Person, items []models.WorkItem) models.MemberCapacitySummary {
	active := make([]models.WorkItem, 0, len(items))
	var totalRemaining float64
	for _, item := range items {
		if !item.Active() {
			continue
		}
		active = append(active, item)
		totalRemaining += item.Remaining()
	}

	dailyCapacity := person.DailyCapacity()

	var available *models.Date
	if days, ok := DaysToComplete(totalRemaining, dailyCapacity); ok {
		d := c.today.AddDays(days)
		available = &d
	}

	return models.MemberCapacitySummary{
		MemberName:             person.Name,
		Role:                   person.Role,
		Team:                   person.Team,
		DailyCapacityHours:     dailyCapacity,
		TotalRemainingHours:    totalRemaining,
		ActiveTasks:            len(active),
		EstimatedAvailableDate: available,
		UpcomingDeadlines:      c.UpcomingDeadlines(active),
		Overloaded:             c.IsOverloaded(dailyCapacity, active),
		UtilizationPercentage:  c.Utilization(dailyCapacity, active),
	}
}
