package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newListCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			docs, err := usecase.NewRecords(dbCtx).List(context.Background(), args[0], limit)
			if err != nil {
				return err
			}
			return outputDocuments(cmd, docs, format)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records (0 for all)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func checkFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
	}
}

func outputDocuments(cmd *cobra.Command, docs []database.Document, format string) error {
	if format == "json" {
		records, err := decodeDocuments(docs)
		if err != nil {
			return err
		}
		return outputJSON(cmd, records)
	}
	outputTable(cmd, docs)
	return nil
}

// calculateKeyWidth sizes the key column from the data, leaving the rest of the
// terminal to the record column.
func calculateKeyWidth(docs []database.Document) int {
	width := 3 // "Key"
	for _, doc := range docs {
		if w := runewidth.StringWidth(doc.Key.String()); w > width {
			width = w
		}
	}
	if width > 40 {
		width = 40
	}
	return width
}

func outputTable(cmd *cobra.Command, docs []database.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	keyWidth := calculateKeyWidth(docs)
	// Reserve space for table borders and padding (roughly 3 chars per column)
	recordWidth := getTerminalWidth() - keyWidth - 2*3 - 1
	if recordWidth < 20 {
		recordWidth = 20
	}

	t.AppendHeader(table.Row{"Key", "Record"})
	for _, doc := range docs {
		t.AppendRow(table.Row{
			wrapString(doc.Key.String(), keyWidth),
			runewidth.Truncate(string(doc.Data), recordWidth, "..."),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d record(s)", len(docs))})

	t.Render()
}
