package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

var (
	// ErrNotFound is returned when a person or assignment does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique person name is reused
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the gorm-backed roster and work item repository
type Store struct {
	DB *gorm.DB
}

// NewStore wraps an open database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func toPeople(rows []TeamMember) []models.Person {
	people := make([]models.Person, len(rows))
	for i, r := range rows {
		people[i] = r.Model()
	}
	return people
}

func toItems(rows []TaskAssignment) []models.WorkItem {
	items := make([]models.WorkItem, len(rows))
	for i, r := range rows {
		items[i] = r.Model()
	}
	return items
}

// ListPeople returns every team member ordered by name
func (s *Store) ListPeople(ctx context.Context) ([]models.Person, error) {
	var rows []TeamMember
	if err := s.DB.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return toPeople(rows), nil
}

// ActivePeople returns the members flagged active
func (s *Store) ActivePeople(ctx context.Context) ([]models.Person, error) {
	var rows []TeamMember
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active people: %w", err)
	}
	return toPeople(rows), nil
}

// AvailablePeople returns active members whose end date is unset or not before date
func (s *Store) AvailablePeople(ctx context.Context, date models.Date) ([]models.Person, error) {
	var rows []TeamMember
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND (end_date IS NULL OR end_date >= ?)", true, date.Time()).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list available people: %w", err)
	}
	return toPeople(rows), nil
}

// PersonByName looks up a member by their unique name
func (s *Store) PersonByName(ctx context.Context, name string) (models.Person, error) {
	var row TeamMember
	if err := s.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return models.Person{}, notFound(err)
	}
	return row.Model(), nil
}

// CreatePerson inserts a member
func (s *Store) CreatePerson(ctx context.Context, p models.Person) (models.Person, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&TeamMember{}).Where("name = ?", p.Name).Count(&count).Error; err != nil {
		return models.Person{}, fmt.Errorf("check person %s: %w", p.Name, err)
	}
	if count > 0 {
		return models.Person{}, fmt.Errorf("person %s: %w", p.Name, ErrDuplicate)
	}

	row := memberFromModel(p)
	row.ID = 0
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Person{}, fmt.Errorf("create person %s: %w", p.Name, err)
	}
	return row.Model(), nil
}

// UpdatePerson replaces the member with the given id
func (s *Store) UpdatePerson(ctx context.Context, id uint, p models.Person) (models.Person, error) {
	var existing TeamMember
	if err := s.DB.WithContext(ctx).First(&existing, id).Error; err != nil {
		return models.Person{}, notFound(err)
	}

	row := memberFromModel(p)
	row.ID = id
	row.CreatedAt = existing.CreatedAt
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return models.Person{}, fmt.Errorf("update person %d: %w", id, err)
	}
	return row.Model(), nil
}

// ListAssignments returns every assignment
func (s *Store) ListAssignments(ctx context.Context) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	if err := s.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return toItems(rows), nil
}

// AssignmentsByAssignee returns all assignments of one person regardless of status
func (s *Store) AssignmentsByAssignee(ctx context.Context, name string) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	if err := s.DB.WithContext(ctx).Where("assignee_name = ?", name).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list assignments of %s: %w", name, err)
	}
	return toItems(rows), nil
}

// ActiveItemsByAssignee returns the person's assignments that still consume capacity
func (s *Store) ActiveItemsByAssignee(ctx context.Context, name string) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	err := s.DB.WithContext(ctx).
		Where("assignee_name = ? AND task_status IN ?", name, activeStatusNames()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active assignments of %s: %w", name, err)
	}
	return toItems(rows), nil
}

// WorkloadByAssigneeUntil returns the person's active assignments due on or before date
func (s *Store) WorkloadByAssigneeUntil(ctx context.Context, name string, date models.Date) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	err := s.DB.WithContext(ctx).
		Where("assignee_name = ? AND estimated_completion_date <= ? AND task_status IN ?", name, date.Time(), activeStatusNames()).
		Order("estimated_completion_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list workload of %s: %w", name, err)
	}
	return toItems(rows), nil
}

// FindAssignment looks up the assignment of an issue to a person
func (s *Store) FindAssignment(ctx context.Context, issueKey, assignee string) (models.WorkItem, error) {
	var row TaskAssignment
	err := s.DB.WithContext(ctx).
		Where("issue_key = ? AND assignee_name = ?", issueKey, assignee).
		First(&row).Error
	if err != nil {
		return models.WorkItem{}, notFound(err)
	}
	return row.Model(), nil
}

// CreateAssignment inserts an assignment
func (s *Store) CreateAssignment(ctx context.Context, w models.WorkItem) (models.WorkItem, error) {
	row := assignmentFromModel(w)
	row.ID = 0
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return models.WorkItem{}, fmt.Errorf("create assignment %s: %w", w.IssueKey, err)
	}
	return row.Model(), nil
}

// UpdateAssignment replaces the assignment with the given id
func (s *Store) UpdateAssignment(ctx context.Context, id uint, w models.WorkItem) (models.WorkItem, error) {
	var existing TaskAssignment
	if err := s.DB.WithContext(ctx).First(&existing, id).Error; err != nil {
		return models.WorkItem{}, notFound(err)
	}

	row := assignmentFromModel(w)
	row.ID = id
	row.CreatedAt = existing.CreatedAt
	if err := s.DB.WithContext(ctx).Save(&row).Error; err != nil {
		return models.WorkItem{}, fmt.Errorf("update assignment %d: %w", id, err)
	}
	return row.Model(), nil
}

// OverdueAssignments returns active assignments due on or before date
func (s *Store) OverdueAssignments(ctx context.Context, date models.Date) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	err := s.DB.WithContext(ctx).
		Where("estimated_completion_date <= ? AND task_status IN ?", date.Time(), activeStatusNames()).
		Order("estimated_completion_date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue assignments: %w", err)
	}
	return toItems(rows), nil
}

// BlockedAssignments returns assignments flagged blocked or in the blocked status
func (s *Store) BlockedAssignments(ctx context.Context) ([]models.WorkItem, error) {
	var rows []TaskAssignment
	err := s.DB.WithContext(ctx).
		Where("is_blocked = ? OR task_status = ?", true, string(models.StatusBlocked)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list blocked assignments: %w", err)
	}
	return toItems(rows), nil
}

// TeamStats counts members and assignments as of date
func (s *Store) TeamStats(ctx context.Context, date models.Date) (models.TeamStats, error) {
	var stats models.TeamStats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&TeamMember{}).Count(&stats.TotalMembers).Error; err != nil {
		return stats, fmt.Errorf("count members: %w", err)
	}
	if err := db.Model(&TeamMember{}).Where("is_active = ?", true).Count(&stats.ActiveMembers).Error; err != nil {
		return stats, fmt.Errorf("count active members: %w", err)
	}
	if err := db.Model(&TaskAssignment{}).Count(&stats.TotalAssignments).Error; err != nil {
		return stats, fmt.Errorf("count assignments: %w", err)
	}
	err := db.Model(&TaskAssignment{}).
		Where("estimated_completion_date <= ? AND task_status IN ?", date.Time(), activeStatusNames()).
		Count(&stats.OverdueTasks).Error
	if err != nil {
		return stats, fmt.Errorf("count overdue assignments: %w", err)
	}
	err = db.Model(&TaskAssignment{}).
		Where("is_blocked = ? OR task_status = ?", true, string(models.StatusBlocked)).
		Count(&stats.BlockedTasks).Error
	if err != nil {
		return stats, fmt.Errorf("count blocked assignments: %w", err)
	}
	return stats, nil
}

// TouchAPIKey records that an API key was just used
func (s *Store) TouchAPIKey(ctx context.Context, key *APIKey, at time.Time) error {
	key.LastUsed = &at
	return s.DB.WithContext(ctx).Model(key).Update("last_used", at).Error
}

// UsageTotals sums usage counters over a report's history
type UsageTotals struct {
	Requests int64 `json:"requests"`
	People   int64 `json:"people"`
	Items    int64 `json:"items"`
}

// UsageReport is the recent daily usage of one API key
type UsageReport struct {
	KeyID     uint        `json:"key_id"`
	KeyName   string      `json:"key_name"`
	RateLimit int         `json:"rate_limit"`
	History   []APIUsage  `json:"usage_history"`
	Totals    UsageTotals `json:"totals"`
}

// APIKeyByID looks up an API key
func (s *Store) APIKeyByID(ctx context.Context, id uint) (APIKey, error) {
	var key APIKey
	if err := s.DB.WithContext(ctx).First(&key, id).Error; err != nil {
		return APIKey{}, notFound(err)
	}
	return key, nil
}

// Usage reports the key's latest days of usage, newest first
func (s *Store) Usage(ctx context.Context, key APIKey, days int) (UsageReport, error) {
	report := UsageReport{
		KeyID:     key.ID,
		KeyName:   key.Name,
		RateLimit: key.RateLimit,
		History:   make([]APIUsage, 0),
	}
	err := s.DB.WithContext(ctx).
		Where("key_id = ?", key.ID).
		Order("date desc").
		Limit(days).
		Find(&report.History).Error
	if err != nil {
		return report, fmt.Errorf("usage of key %d: %w", key.ID, err)
	}
	for _, u := range report.History {
		report.Totals.Requests += int64(u.RequestCount)
		report.Totals.People += int64(u.PeopleReported)
		report.Totals.Items += int64(u.ItemsEvaluated)
	}
	return report, nil
}
