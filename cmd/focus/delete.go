package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <collection> <key>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := args[0]

			// Confirmation prompt
			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Delete %s/%s? (y/N) ", collection, args[1]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
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

			records := usecase.NewRecords(dbCtx)
			key := records.KeyFor(collection, args[1])
			existed, err := records.Delete(context.Background(), collection, key)
			if err != nil {
				return err
			}
			if !existed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s/%s did not exist\n", collection, key)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", collection, key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
