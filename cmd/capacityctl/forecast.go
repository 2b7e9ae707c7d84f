package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/export"
	"github.com/TusharMannDev/jira-capacity-tracker/pkg/models"
)

func newForecastCmd() *cobra.Command {
	var (
		opts   seedOptions
		days   int
		person string
		output string
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Print the daily workload forecast",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative, got %d", days)
			}
			ctx := cmd.Context()
			db, today, err := opts.load(ctx)
			if err != nil {
				return err
			}

			forecasts, err := opts.planner(db).ResourceAvailability(ctx, today, days)
			if err != nil {
				return err
			}
			forecasts = filterForecasts(forecasts, person)
			if person != "" && len(forecasts) == 0 {
				return fmt.Errorf("no active person named %q", person)
			}

			switch output {
			case "", "table":
				fmt.Fprintln(cmd.OutOrStdout(), export.ForecastTable(forecasts))
			case "json":
				return export.WriteJSON(cmd.OutOrStdout(), export.NewReport(today, nil, forecasts))
			case "csv":
				return export.WriteForecastCSV(cmd.OutOrStdout(), forecasts)
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&days, "days", 14, "Number of days to forecast starting today")
	cmd.Flags().StringVar(&person, "person", "", "Only show this person")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or csv")
	return cmd
}

// filterForecasts keeps only the named person's forecast when name is set
func filterForecasts(forecasts []models.ResourceAvailability, name string) []models.ResourceAvailability {
	if name == "" {
		return forecasts
	}
	out := make([]models.ResourceAvailability, 0, 1)
	for _, f := range forecasts {
		if f.MemberName == name {
			out = append(out, f)
		}
	}
	return out
}
