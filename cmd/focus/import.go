package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newImportCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace collections with the contents of an export",
		Long:  "Import an export file. Every collection named in the file is cleared and refilled in one transaction; collections not in the file are left alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			uc := usecase.NewBackup(dbCtx)
			b, err := uc.Load(args[0])
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirmTyped(cmd,
					fmt.Sprintf("This replaces all records in %s with %d record(s) from %s.", strings.Join(b.Collections(), ", "), b.Records(), args[0]),
					"import")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
					return nil
				}
			}

			result, err := uc.Restore(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s) into %d collection(s)\n", result.Records, result.Collections)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
