package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var (
		to     int
		status bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the store to a schema version",
		Long:  "Open the store at the requested schema version, running every pending migration gate in one transaction.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			ctx := context.Background()
			if status {
				persisted, err := dbCtx.PersistedVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Store %s is at version %d (latest %d)\n", dbCtx.Registry().Name(), persisted, dbCtx.Registry().Latest())
				return nil
			}

			h, err := dbCtx.Open(ctx, to)
			if err != nil {
				return err
			}
			defer h.Close()

			report := h.Upgrade()
			if !report.Upgraded() {
				fmt.Fprintf(cmd.OutOrStdout(), "Store is already at version %d\n", h.Version())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Upgraded store from version %d to %d (gates %v, %d steps)\n",
				report.From, report.To, report.Gates, report.Steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "Target schema version (default: configured version)")
	cmd.Flags().BoolVar(&status, "status", false, "Only print the persisted version")

	return cmd
}
