package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newQueryCmd() *cobra.Command {
	var (
		eq, gt, gte, lt, lte string
		asString             bool
		limit                int
		format               string
	)

	cmd := &cobra.Command{
		Use:   "query <collection> <index>",
		Short: "Find records through a secondary index",
		Long: `Find records whose index value matches the given operators. Without operators
every record present in the index is returned, ordered by index value.

Values that parse as numbers are compared as numbers; pass --string to compare
them as strings instead.`,
		Example: `  focus query tasks byDueDate --gte 2024-03-01 --lt 2024-04-01
  focus query tasks byIsDeleted --eq 0
  focus query tasks byTags --eq work`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			value := func(name, v string) any {
				if !cmd.Flags().Changed(name) {
					return nil
				}
				return parseBound(v, asString)
			}
			r, err := usecase.Bounds{
				Eq:  value("eq", eq),
				Gt:  value("gt", gt),
				Gte: value("gte", gte),
				Lt:  value("lt", lt),
				Lte: value("lte", lte),
			}.Range()
			if err != nil {
				return err
			}

			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			docs, err := usecase.NewRecords(dbCtx).Query(context.Background(), usecase.QueryInput{
				Collection: args[0],
				Index:      args[1],
				Range:      r,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			return outputDocuments(cmd, docs, format)
		},
	}

	cmd.Flags().StringVar(&eq, "eq", "", "Match values equal to this")
	cmd.Flags().StringVar(&gt, "gt", "", "Match values greater than this")
	cmd.Flags().StringVar(&gte, "gte", "", "Match values greater than or equal to this")
	cmd.Flags().StringVar(&lt, "lt", "", "Match values less than this")
	cmd.Flags().StringVar(&lte, "lte", "", "Match values less than or equal to this")
	cmd.Flags().BoolVar(&asString, "string", false, "Compare values as strings even when they look numeric")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records (0 for all)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

// parseBound reads a command-line bound as an integer, a float, or a string.
func parseBound(v string, asString bool) any {
	if asString {
		return v
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
