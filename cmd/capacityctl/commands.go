package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/capacity"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/database/memory"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/planner"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/seed"
)

// Run executes CLI.
func Run() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "capacityctl",
		Short:        "Evaluate team capacity from a roster seed file",
		SilenceUsage: true,
	}
	root.AddCommand(
		newKeygenCmd(),
		newSummaryCmd(),
		newForecastCmd(),
		newExportCmd(),
	)
	return root
}

// seedOptions are the flags shared by the evaluation commands
type seedOptions struct {
	path    string
	today   string
	workers int
}

func (o *seedOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.path, "seed", "", "YAML file with people and assignments")
	cmd.Flags().StringVar(&o.today, "today", "", "Evaluation date (YYYY-MM-DD), overrides the seed file")
	cmd.Flags().IntVar(&o.workers, "workers", 4, "Number of people evaluated concurrently")
}

// load reads the seed file into memory and resolves the evaluation date
func (o *seedOptions) load(ctx context.Context) (*memory.DB, models.Date, error) {
	if o.path == "" {
		return nil, models.Date{}, errors.New("--seed is required")
	}
	s, err := seed.ReadFile(o.path)
	if err != nil {
		return nil, models.Date{}, err
	}

	today := models.DateOf(time.Now())
	if !s.Today.IsZero() {
		today = s.Today
	}
	if o.today != "" {
		if today, err = models.ParseDate(o.today); err != nil {
			return nil, models.Date{}, err
		}
	}

	db, err := s.Store(ctx)
	if err != nil {
		return nil, models.Date{}, err
	}
	return db, today, nil
}

func (o *seedOptions) planner(db *memory.DB) *planner.Planner {
	return planner.New(db, db,
		planner.WithWorkers(o.workers),
		planner.WithUtilizationWindow(capacity.DefaultUtilizationWindow),
	)
}
