// Package seed loads a roster and its work items from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database/memory"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// ErrInvalidSeed is returned when a seed file cannot be interpreted
var ErrInvalidSeed = errors.New("invalid seed")

type rawPerson struct {
	Name               string   `yaml:"name"`
	Email              string   `yaml:"email"`
	Role               string   `yaml:"role"`
	Team               string   `yaml:"team"`
	HoursPerDay        *float64 `yaml:"hours_per_day"`
	CapacityMultiplier *float64 `yaml:"capacity_multiplier"`
	Active             *bool    `yaml:"active"`
	StartDate          string   `yaml:"start_date"`
	EndDate            string   `yaml:"end_date"`
	Skills             string   `yaml:"skills"`
}

type rawItem struct {
	IssueKey       string   `yaml:"issue_key"`
	Assignee       string   `yaml:"assignee"`
	EstimatedHours *float64 `yaml:"estimated_hours"`
	RemainingHours *float64 `yaml:"remaining_hours"`
	StartDate      string   `yaml:"start_date"`
	DueDate        string   `yaml:"due_date"`
	Status         string   `yaml:"status"`
	Blocked        bool     `yaml:"blocked"`
	BlockingReason string   `yaml:"blocking_reason"`
}

type rawSeed struct {
	Today       string      `yaml:"today"`
	People      []rawPerson `yaml:"people"`
	Assignments []rawItem   `yaml:"assignments"`
}

// Seed is a parsed roster with its work items
type Seed struct {
	// Today is the evaluation date pinned by the file, zero when unset
	Today  models.Date
	People []models.Person
	Items  []models.WorkItem
}

// ReadFile parses the seed file at path
func ReadFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("seed file %s is empty: %w", path, ErrInvalidSeed)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML seed document
func Parse(data []byte) (*Seed, error) {
	var raw rawSeed
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	s := &Seed{}
	if raw.Today != "" {
		d, err := parseDate("today", raw.Today)
		if err != nil {
			return nil, err
		}
		s.Today = d
	}

	for i, rp := range raw.People {
		p, err := rp.person()
		if err != nil {
			return nil, fmt.Errorf("people[%d]: %w", i, err)
		}
		s.People = append(s.People, p)
	}
	for i, ri := range raw.Assignments {
		w, err := ri.item()
		if err != nil {
			return nil, fmt.Errorf("assignments[%d]: %w", i, err)
		}
		s.Items = append(s.Items, w)
	}
	return s, nil
}

func parseDate(field, value string) (models.Date, error) {
	d, err := models.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidSeed, field, value, err)
	}
	return d, nil
}

func optionalDate(field, value string) (*models.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := parseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (rp rawPerson) person() (models.Person, error) {
	name := strings.TrimSpace(rp.Name)
	if name == "" {
		return models.Person{}, fmt.Errorf("%w: name is required", ErrInvalidSeed)
	}

	p := models.Person{
		Name:               name,
		Email:              rp.Email,
		Role:               rp.Role,
		Team:               rp.Team,
		HoursPerDay:        8,
		CapacityMultiplier: 1,
		Active:             true,
		Skills:             rp.Skills,
	}
	if rp.HoursPerDay != nil {
		p.HoursPerDay = *rp.HoursPerDay
	}
	if rp.CapacityMultiplier != nil {
		p.CapacityMultiplier = *rp.CapacityMultiplier
	}
	if rp.Active != nil {
		p.Active = *rp.Active
	}

	var err error
	if p.StartDate, err = optionalDate("start_date", rp.StartDate); err != nil {
		return models.Person{}, err
	}
	if p.EndDate, err = optionalDate("end_date", rp.EndDate); err != nil {
		return models.Person{}, err
	}
	return p, nil
}

func (ri rawItem) item() (models.WorkItem, error) {
	if strings.TrimSpace(ri.IssueKey) == "" || strings.TrimSpace(ri.Assignee) == "" {
		return models.WorkItem{}, fmt.Errorf("%w: issue_key and assignee are required", ErrInvalidSeed)
	}

	status := models.StatusNotStarted
	if ri.Status != "" {
		status = models.TaskStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ri.Status), " ", "_")))
		if !status.Valid() {
			return models.WorkItem{}, fmt.Errorf("%w: unknown status %q", ErrInvalidSeed, ri.Status)
		}
	}

	w := models.WorkItem{
		IssueKey:       strings.TrimSpace(ri.IssueKey),
		AssigneeName:   strings.TrimSpace(ri.Assignee),
		EstimatedHours: ri.EstimatedHours,
		RemainingHours: ri.RemainingHours,
		Status:         status,
		Blocked:        ri.Blocked,
		BlockingReason: ri.BlockingReason,
	}
	if w.RemainingHours == nil {
		w.RemainingHours = ri.EstimatedHours
	}

	var err error
	if w.StartDate, err = optionalDate("start_date", ri.StartDate); err != nil {
		return models.WorkItem{}, err
	}
	if w.EstimatedCompletionDate, err = optionalDate("due_date", ri.DueDate); err != nil {
		return models.WorkItem{}, err
	}
	return w, nil
}

// Store loads the seed into a fresh in-memory database
func (s *Seed) Store(ctx context.Context) (*memory.DB, error) {
	db, err := memory.New()
	if err != nil {
		return nil, err
	}
	for _, p := range s.People {
		if _, err := db.CreatePerson(ctx, p); err != nil {
			return nil, fmt.Errorf("load person %s: %w", p.Name, err)
		}
	}
	for _, w := range s.Items {
		if _, err := db.CreateAssignment(ctx, w); err != nil {
			return nil, fmt.Errorf("load assignment %s: %w", w.IssueKey, err)
		}
	}
	return db, nil
}
