package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show collections and indexes of the store",
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

			switch format {
			case "json":
				return outputJSON(cmd, stats)
			case "table":
				outputSchemaTable(cmd, stats)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputSchemaTable(cmd *cobra.Command, stats *usecase.StoreStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "Store %s, version %d (latest %d)\n", stats.Name, stats.PersistedVersion, stats.LatestVersion)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Collection", "Key", "Since", "Records", "Indexes"})

	for _, c := range stats.Collections {
		key := c.KeyPath
		if c.AutoIncrement {
			key += " (auto)"
		}
		indexes := make([]string, 0, len(c.Indexes))
		for _, idx := range c.Indexes {
			name := idx.Name + "(" + idx.KeyPath + ")"
			var flags []string
			if idx.MultiEntry {
				flags = append(flags, "multi")
			}
			if idx.Unique {
				flags = append(flags, "unique")
			}
			if len(flags) > 0 {
				name += " [" + strings.Join(flags, ",") + "]"
			}
			indexes = append(indexes, name)
		}
		t.AppendRow(table.Row{c.Name, key, c.CreatedVersion, c.Records, strings.Join(indexes, "\n")})
	}

	t.Render()
}
