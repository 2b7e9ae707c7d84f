package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/export"
)

func newExportCmd() *cobra.Command {
	var (
		opts   seedOptions
		days   int
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the team summary as CSV or a JSON report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, today, err := opts.load(ctx)
			if err != nil {
				return err
			}
			p := opts.planner(db)

			summaries, err := p.TeamSummary(ctx, today)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "csv":
				return export.WriteSummaryCSV(w, summaries)
			case "json":
				forecasts, err := p.ResourceAvailability(ctx, today, days)
				if err != nil {
					return err
				}
				return export.WriteJSON(w, export.NewReport(today, summaries, forecasts))
			default:
				return fmt.Errorf("unknown export format: %s", format)
			}
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or json")
	cmd.Flags().IntVar(&days, "days", 30, "Forecast horizon included in the JSON report")
	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")
	return cmd
}
