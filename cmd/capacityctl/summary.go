package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TusharMannDev/jira-capacity-tracker/pkg/export"
)

func newSummaryCmd() *cobra.Command {
	var (
		opts   seedOptions
		output string
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the capacity summary of every active person",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, today, err := opts.load(ctx)
			if err != nil {
				return err
			}

			summaries, err := opts.planner(db).TeamSummary(ctx, today)
			if err != nil {
				return err
			}

			switch output {
			case "", "table":
				fmt.Fprintf(cmd.OutOrStdout(), "Capacity as of %s\n%s\n", today, export.SummaryTable(summaries))
			case "json":
				return export.WriteJSON(cmd.OutOrStdout(), export.NewReport(today, summaries, nil))
			case "csv":
				return export.WriteSummaryCSV(cmd.OutOrStdout(), summaries)
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or csv")
	return cmd
}
