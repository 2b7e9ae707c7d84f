// Package planner runs the capacity calculations across a roster. It pulls
// people and work items from the providers, evaluates each person
// independently and collects the results.
package planner

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/capacity"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/logging"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/metrics"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// Roster supplies the people to plan for
type Roster interface {
	ActivePeople(ctx context.Context) ([]models.Person, error)
}

// WorkItems supplies the work assigned to people
type WorkItems interface {
	ActiveItemsByAssignee(ctx context.Context, name string) ([]models.WorkItem, error)
	WorkloadByAssigneeUntil(ctx context.Context, name string, date models.Date) ([]models.WorkItem, error)
}

// Planner evaluates capacity for every active person on the roster
type Planner struct {
	roster            Roster
	items             WorkItems
	workers           int
	utilizationWindow int
	metrics           *metrics.Manager
	logger            logging.Logger
}

// Option configures a Planner
type Option func(*Planner)

// WithWorkers bounds how many people are evaluated concurrently
func WithWorkers(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithUtilizationWindow sets how many days ahead utilization looks
func WithUtilizationWindow(days int) Option {
	return func(p *Planner) {
		if days > 0 {
			p.utilizationWindow = days
		}
	}
}

// WithMetrics records calculation metrics on m
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

// WithLogger sets the planner's logger
func WithLogger(l logging.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a planner over the given providers
func New(roster Roster, items WorkItems, opts ...Option) *Planner {
	p := &Planner{
		roster:            roster,
		items:             items,
		workers:           runtime.NumCPU(),
		utilizationWindow: capacity.DefaultUtilizationWindow,
		logger:            logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) calculator(today models.Date) *capacity.Calculator {
	return capacity.NewCalculator(today, capacity.WithUtilizationWindow(p.utilizationWindow))
}

// TeamSummary computes a capacity summary for every active person
func (p *Planner) TeamSummary(ctx context.Context, today models.Date) ([]models.MemberCapacitySummary, error) {
	start := time.Now()
	people, err := p.activePeople(ctx)
	if err != nil {
		return nil, err
	}

	calc := p.calculator(today)
	summaries, err := forEachPerson(ctx, people, p.workers, func(ctx context.Context, person models.Person) (models.MemberCapacitySummary, error) {
		items, err := p.items.ActiveItemsByAssignee(ctx, person.Name)
		if err != nil {
			return models.MemberCapacitySummary{}, fmt.Errorf("work items of %s: %w", person.Name, err)
		}
		return calc.MemberSummary(person, items), nil
	})
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		overloaded, mean := teamFigures(summaries)
		p.metrics.RecordTeamSummary(len(summaries), overloaded, mean)
		p.metrics.ObserveCalculation("team_summary", time.Since(start))
	}
	p.logger.Debugf("team summary computed for %d people", len(summaries))
	return summaries, nil
}

// MemberSummary computes the capacity summary of one person
func (p *Planner) MemberSummary(ctx context.Context, person models.Person, today models.Date) (models.MemberCapacitySummary, error) {
	items, err := p.items.ActiveItemsByAssignee(ctx, person.Name)
	if err != nil {
		return models.MemberCapacitySummary{}, fmt.Errorf("work items of %s: %w", person.Name, err)
	}
	return p.calculator(today).MemberSummary(person, items), nil
}

// ResourceAvailability forecasts the daily workload of every active person
// for the first days days starting today
func (p *Planner) ResourceAvailability(ctx context.Context, today models.Date, days int) ([]models.ResourceAvailability, error) {
	start := time.Now()
	people, err := p.activePeople(ctx)
	if err != nil {
		return nil, err
	}

	calc := p.calculator(today)
	forecasts, err := forEachPerson(ctx, people, p.workers, func(ctx context.Context, person models.Person) (models.ResourceAvailability, error) {
		items, err := p.items.ActiveItemsByAssignee(ctx, person.Name)
		if err != nil {
			return models.ResourceAvailability{}, fmt.Errorf("work items of %s: %w", person.Name, err)
		}
		return calc.Availability(person, items, days), nil
	})
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.RecordForecasts(len(forecasts))
		p.metrics.ObserveCalculation("resource_availability", time.Since(start))
	}
	return forecasts, nil
}

// AssigneeWorkload lists the items an assignee must finish within days days
// along with their projected daily load over that horizon
func (p *Planner) AssigneeWorkload(ctx context.Context, name string, today models.Date, days int) (models.AssigneeWorkload, error) {
	due, err := p.items.WorkloadByAssigneeUntil(ctx, name, today.AddDays(days))
	if err != nil {
		return models.AssigneeWorkload{}, fmt.Errorf("workload of %s: %w", name, err)
	}
	active, err := p.items.ActiveItemsByAssignee(ctx, name)
	if err != nil {
		return models.AssigneeWorkload{}, fmt.Errorf("work items of %s: %w", name, err)
	}

	var total float64
	for _, item := range active {
		total += item.Remaining()
	}

	daily := make(models.DailyWorkload)
	if days > 0 {
		daily = p.calculator(today).Forecast(active).Window(today, today.AddDays(days-1))
	}
	if p.metrics != nil {
		p.metrics.RecordForecasts(1)
	}

	if due == nil {
		due = []models.WorkItem{}
	}
	return models.AssigneeWorkload{
		AssigneeName:        name,
		ForecastDays:        days,
		Workload:            due,
		TotalRemainingHours: total,
		DailyWorkload:       daily,
	}, nil
}

func (p *Planner) activePeople(ctx context.Context) ([]models.Person, error) {
	people, err := p.roster.ActivePeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("active people: %w", err)
	}
	return uniqueActive(people), nil
}

// uniqueActive drops inactive entries and repeated names, keeping the first
func uniqueActive(people []models.Person) []models.Person {
	seen := make(map[string]struct{}, len(people))
	out := make([]models.Person, 0, len(people))
	for _, person := range people {
		if !person.Active {
			continue
		}
		if _, ok := seen[person.Name]; ok {
			continue
		}
		seen[person.Name] = struct{}{}
		out = append(out, person)
	}
	return out
}

// forEachPerson runs fn for every person with at most workers in flight.
// Results keep the order of people.
func forEachPerson[T any](
	ctx context.Context,
	people []models.Person,
	workers int,
	fn func(context.Context, models.Person) (T, error),
) ([]T, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]T, len(people))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, person := range people {
		i, person := i, person
		g.Go(func() error {
			r, err := fn(ctx, person)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func teamFigures(summaries []models.MemberCapacitySummary) (overloaded int, meanUtilization float64) {
	if len(summaries) == 0 {
		return 0, 0
	}
	var total float64
	for _, s := range summaries {
		if s.Overloaded {
			overloaded++
		}
		total += s.UtilizationPercentage
	}
	return overloaded, total / float64(len(summaries))
}
