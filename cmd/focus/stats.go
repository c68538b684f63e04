package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newStatsCmd() *cobra.Command {
	var metrics bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record counts and applied migration gates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			stats, err := usecase.NewRecords(dbCtx).Stats(context.Background())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Collection", "Records"})
			var total int64
			for _, c := range stats.Collections {
				t.AppendRow(table.Row{c.Name, c.Records})
				total += c.Records
			}
			t.AppendFooter(table.Row{"Total", total})
			t.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "Version %d of %d, gates applied: %v\n", stats.PersistedVersion, stats.LatestVersion, stats.AppliedGates)

			if metrics {
				fmt.Fprintln(cmd.OutOrStdout())
				dbCtx.WriteMetrics(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&metrics, "metrics", false, "Also print the store metrics of this run in Prometheus format")

	return cmd
}
