package planner

import (
	"context"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/capacity"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

// Evaluate computes summaries and forecasts for an ad-hoc roster without
// touching any store. Items are matched to people by assignee name.
func Evaluate(ctx context.Context, people []models.Person, items []models.WorkItem, today models.Date, days, workers int, opts ...capacity.Option) (models.EvaluateResponse, error) {
	byAssignee := make(map[string][]models.WorkItem)
	for _, item := range items {
		byAssignee[item.AssigneeName] = append(byAssignee[item.AssigneeName], item)
	}

	calc := capacity.NewCalculator(today, opts...)
	active := uniqueActive(people)

	summaries, err := forEachPerson(ctx, active, workers, func(_ context.Context, person models.Person) (models.MemberCapacitySummary, error) {
		return calc.MemberSummary(person, byAssignee[person.Name]), nil
	})
	if err != nil {
		return models.EvaluateResponse{}, err
	}

	forecasts, err := forEachPerson(ctx, active, workers, func(_ context.Context, person models.Person) (models.ResourceAvailability, error) {
		return calc.Availability(person, byAssignee[person.Name], days), nil
	})
	if err != nil {
		return models.EvaluateResponse{}, err
	}

	return models.EvaluateResponse{
		Today:     today,
		Summaries: summaries,
		Forecasts: forecasts,
	}, nil
}
