package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/store"
	"github.com/focus-md/focus/internal/usecase"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every collection as JSON",
		Long:  "Export every collection as one JSON object mapping collection names to their records. Without --output the export is saved in the backups directory.",
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
			if output == "" {
				result, err := usecase.NewBackup(dbCtx).Create(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) from %d collection(s) to %s\n", result.Records, result.Collections, result.Path)
				fmt.Fprintf(cmd.OutOrStdout(), "sha256 %s\n", result.Hash)
				return nil
			}

			b, err := store.Export(ctx, dbCtx)
			if err != nil {
				return err
			}
			if output == "-" {
				return outputJSON(cmd, b)
			}

			data, err := json.MarshalIndent(b, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) from %d collection(s) to %s\n", b.Records(), len(b), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the export to this file ('-' for stdout)")

	return cmd
}
