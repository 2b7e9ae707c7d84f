package database

import (
	"time"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// TeamMember represents the team_members table
type TeamMember struct {
	ID                 uint    `gorm:"primaryKey"`
	Name               string  `gorm:"unique;not null"`
	Email              string  `gorm:"not null"`
	Role               string
	Team               string  `gorm:"index"`
	HoursPerDay        float64 `gorm:"not null"`
	CapacityMultiplier float64 `gorm:"not null"`
	IsActive           bool    `gorm:"index"`
	StartDate          *time.Time
	EndDate            *time.Time
	Skills             string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TaskAssignment represents the task_assignments table
type TaskAssignment struct {
	ID                      uint   `gorm:"primaryKey"`
	IssueKey                string `gorm:"not null;index:idx_issue_assignee"`
	AssigneeName            string `gorm:"not null;index:idx_issue_assignee;index"`
	EstimatedHours          *float64
	ActualHours             *float64
	RemainingHours          *float64
	StartDate               *time.Time
	EstimatedCompletionDate *time.Time `gorm:"index"`
	ActualCompletionDate    *time.Time
	PercentComplete         float64
	TaskStatus              string `gorm:"not null;index"`
	IsBlocked               bool
	BlockingReason          string
	Notes                   string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func toTime(d *models.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func toDate(t *time.Time) *models.Date {
	if t == nil || t.IsZero() {
		return nil
	}
	d := models.DateOf(t.UTC())
	return &d
}

func memberFromModel(p models.Person) TeamMember {
	return TeamMember{
		ID:                 p.ID,
		Name:               p.Name,
		Email:              p.Email,
		Role:               p.Role,
		Team:               p.Team,
		HoursPerDay:        p.HoursPerDay,
		CapacityMultiplier: p.CapacityMultiplier,
		IsActive:           p.Active,
		StartDate:          toTime(p.StartDate),
		EndDate:            toTime(p.EndDate),
		Skills:             p.Skills,
		Notes:              p.Notes,
	}
}

// Model converts the row to the domain type
func (m TeamMember) Model() models.Person {
	return models.Person{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		Role:               m.Role,
		Team:               m.Team,
		HoursPerDay:        m.HoursPerDay,
		CapacityMultiplier: m.CapacityMultiplier,
		Active:             m.IsActive,
		StartDate:          toDate(m.StartDate),
		EndDate:            toDate(m.EndDate),
		Skills:             m.Skills,
		Notes:              m.Notes,
	}
}

func assignmentFromModel(w models.WorkItem) TaskAssignment {
	status := w.Status
	if status == "" {
		status = models.StatusNotStarted
	}
	return TaskAssignment{
		ID:                      w.ID,
		IssueKey:                w.IssueKey,
		AssigneeName:            w.AssigneeName,
		EstimatedHours:          w.EstimatedHours,
		ActualHours:             w.ActualHours,
		RemainingHours:          w.RemainingHours,
		StartDate:               toTime(w.StartDate),
		EstimatedCompletionDate: toTime(w.EstimatedCompletionDate),
		ActualCompletionDate:    toTime(w.ActualCompletionDate),
		PercentComplete:         w.PercentComplete,
		TaskStatus:              string(status),
		IsBlocked:               w.Blocked,
		BlockingReason:          w.BlockingReason,
		Notes:                   w.Notes,
	}
}

// Model converts the row to the domain type
func (a TaskAssignment) Model() models.WorkItem {
	return models.WorkItem{
		ID:                      a.ID,
		IssueKey:                a.IssueKey,
		AssigneeName:            a.AssigneeName,
		EstimatedHours:          a.EstimatedHours,
		ActualHours:             a.ActualHours,
		RemainingHours:          a.RemainingHours,
		StartDate:               toDate(a.StartDate),
		EstimatedCompletionDate: toDate(a.EstimatedCompletionDate),
		ActualCompletionDate:    toDate(a.ActualCompletionDate),
		PercentComplete:         a.PercentComplete,
		Status:                  models.TaskStatus(a.TaskStatus),
		Blocked:                 a.IsBlocked,
		BlockingReason:          a.BlockingReason,
		Notes:                   a.Notes,
	}
}

func activeStatusNames() []string {
	names := make([]string, len(models.ActiveStatuses))
	for i, s := range models.ActiveStatuses {
		names[i] = string(s)
	}
	return names
}
