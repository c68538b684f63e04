package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newClearCmd() *cobra.Command {
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "clear [collection...]",
		Short: "Delete every record of collections",
		Long:  "Delete every record of the named collections, or of the whole store with --all. Collections, indexes and key generators are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("name collections to clear or pass --all")
			}

			target := "every collection"
			if !all {
				target = strings.Join(args, ", ")
			}

			if !force {
				ok, err := confirmTyped(cmd, fmt.Sprintf("This permanently deletes all records in %s.", target), "clear")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Clear cancelled")
					return nil
				}
			}

			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			removed, err := usecase.NewRecords(dbCtx).Clear(context.Background(), args...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) from %s\n", removed, target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear every collection")
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
