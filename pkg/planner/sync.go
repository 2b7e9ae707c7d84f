package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/metrics"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// Defaults for members created from tracker assignees
const (
	DefaultRole        = "Developer"
	DefaultTeam        = "Development"
	DefaultHoursPerDay = 8.0
	defaultIssueHours  = 8.0
)

// DefaultStoryPointHours converts common story point values to hours
var DefaultStoryPointHours = map[int]float64{
	1:  4,
	2:  8,
	3:  16,
	5:  32,
	8:  64,
	13: 104,
}

// SyncStore is the roster and work item storage the tracker sync writes to
type SyncStore interface {
	PersonByName(ctx context.Context, name string) (models.Person, error)
	CreatePerson(ctx context.Context, p models.Person) (models.Person, error)
	FindAssignment(ctx context.Context, issueKey, assignee string) (models.WorkItem, error)
	CreateAssignment(ctx context.Context, w models.WorkItem) (models.WorkItem, error)
}

// Syncer turns issue tracker issues into team members and task assignments
type Syncer struct {
	store           SyncStore
	storyPointHours map[int]float64
	hoursPerDay     float64
	emailDomain     string
	metrics         *metrics.Manager
	logger          logging.Logger
}

// SyncOption configures a Syncer
type SyncOption func(*Syncer)

// WithStoryPointHours replaces the story point to hours table
func WithStoryPointHours(table map[int]float64) SyncOption {
	return func(s *Syncer) {
		if len(table) > 0 {
			s.storyPointHours = table
		}
	}
}

// WithDefaultHoursPerDay sets the daily hours of members created by sync
func WithDefaultHoursPerDay(hours float64) SyncOption {
	return func(s *Syncer) {
		if hours > 0 {
			s.hoursPerDay = hours
		}
	}
}

// WithEmailDomain sets the domain of addresses generated for new members
func WithEmailDomain(domain string) SyncOption {
	return func(s *Syncer) {
		if domain != "" {
			s.emailDomain = domain
		}
	}
}

// WithSyncMetrics records sync metrics on m
func WithSyncMetrics(m *metrics.Manager) SyncOption {
	return func(s *Syncer) {
		s.metrics = m
	}
}

// WithSyncLogger sets the syncer's logger
func WithSyncLogger(l logging.Logger) SyncOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSyncer creates a syncer writing to store
func NewSyncer(store SyncStore, opts ...SyncOption) *Syncer {
	s := &Syncer{
		store:           store,
		storyPointHours: DefaultStoryPointHours,
		hoursPerDay:     DefaultHoursPerDay,
		emailDomain:     "example.com",
		logger:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync creates any missing members and assignments for the active issues.
// Existing assignments are left untouched.
func (s *Syncer) Sync(ctx context.Context, issues []models.Issue, today models.Date) (models.SyncResult, error) {
	var result models.SyncResult

	active := make([]models.Issue, 0, len(issues))
	assignees := make(map[string]struct{})
	for _, issue := range issues {
		if !syncable(models.ParseIssueStatus(issue.Status)) {
			continue
		}
		active = append(active, issue)
		if !issue.Unassigned() {
			assignees[strings.TrimSpace(issue.Assignee)] = struct{}{}
		}
	}
	result.ActiveIssues = len(active)
	result.Assignees = len(assignees)

	names := make([]string, 0, len(assignees))
	for name := range assignees {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		created, err := s.ensureMember(ctx, name, today)
		if err != nil {
			return result, err
		}
		if created {
			result.MembersCreated++
		}
	}

	for _, issue := range active {
		if issue.Unassigned() {
			continue
		}
		created, err := s.syncAssignment(ctx, issue, today)
		if err != nil {
			return result, err
		}
		if created {
			result.AssignmentsCreated++
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSync(result.ActiveIssues, result.MembersCreated, result.AssignmentsCreated)
	}
	s.logger.Infof("synced %d issues with %d unique assignees", result.ActiveIssues, result.Assignees)
	return result, nil
}

func syncable(status models.IssueStatus) bool {
	return status == models.IssueToDo || status == models.IssueInProgress || status == models.IssueInReview
}

func (s *Syncer) ensureMember(ctx context.Context, name string, today models.Date) (bool, error) {
	_, err := s.store.PersonByName(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, fmt.Errorf("look up member %s: %w", name, err)
	}

	_, err = s.store.CreatePerson(ctx, models.Person{
		Name:               name,
		Email:              EmailFor(name, s.emailDomain),
		Role:               DefaultRole,
		Team:               DefaultTeam,
		HoursPerDay:        s.hoursPerDay,
		CapacityMultiplier: 1.0,
		Active:             true,
		StartDate:          models.DatePtr(today),
		Notes:              "Auto-created from issue tracker assignee",
	})
	if err != nil {
		return false, fmt.Errorf("create member %s: %w", name, err)
	}
	s.logger.Infof("created team member for tracker assignee: %s", name)
	return true, nil
}

func (s *Syncer) syncAssignment(ctx context.Context, issue models.Issue, today models.Date) (bool, error) {
	assignee := strings.TrimSpace(issue.Assignee)
	_, err := s.store.FindAssignment(ctx, issue.Key, assignee)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, fmt.Errorf("look up assignment %s: %w", issue.Key, err)
	}

	hours := s.EstimateHours(issue.StoryPoints)
	completion := issue.DueDate
	if completion == nil || completion.IsZero() {
		d, err := s.estimateCompletion(ctx, assignee, hours, today)
		if err != nil {
			return false, err
		}
		completion = &d
	}

	_, err = s.store.CreateAssignment(ctx, models.WorkItem{
		IssueKey:                issue.Key,
		AssigneeName:            assignee,
		EstimatedHours:          models.Hours(hours),
		RemainingHours:          models.Hours(hours),
		StartDate:               models.DatePtr(today),
		EstimatedCompletionDate: completion,
		Status:                  TaskStatusFor(models.ParseIssueStatus(issue.Status)),
	})
	if err != nil {
		return false, fmt.Errorf("create assignment %s: %w", issue.Key, err)
	}
	s.logger.Debugf("created task assignment for issue %s assigned to %s", issue.Key, assignee)
	return true, nil
}

// EstimateHours converts story points to hours using the syncer's table.
// Missing points count as one day; unknown values as a day per point.
func (s *Syncer) EstimateHours(points *int) float64 {
	if points == nil {
		return defaultIssueHours
	}
	if h, ok := s.storyPointHours[*points]; ok {
		return h
	}
	return float64(*points) * defaultIssueHours
}

func (s *Syncer) estimateCompletion(ctx context.Context, assignee string, hours float64, today models.Date) (models.Date, error) {
	person, err := s.store.PersonByName(ctx, assignee)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return models.Date{}, fmt.Errorf("look up member %s: %w", assignee, err)
	}
	if err == nil {
		if c := person.DailyCapacity(); c > 0 {
			return today.AddDays(int(math.Ceil(hours / c))), nil
		}
	}
	return today.AddDays(int(hours / defaultIssueHours)), nil
}

// TaskStatusFor maps a tracker status onto the assignment lifecycle
func TaskStatusFor(status models.IssueStatus) models.TaskStatus {
	switch status {
	case models.IssueInProgress, models.IssueInReview:
		return models.StatusInProgress
	case models.IssueDone:
		return models.StatusCompleted
	case models.IssueBlocked:
		return models.StatusBlocked
	default:
		return models.StatusNotStarted
	}
}

// EmailFor derives an address like "jane.doe@domain" from a display name
func EmailFor(name, domain string) string {
	local := strings.Join(strings.Fields(strings.ToLower(name)), ".")
	return local + "@" + domain
}
