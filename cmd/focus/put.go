package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <collection> [file]",
		Short: "Insert or replace a record",
		Long:  "Store a JSON record read from a file or standard input. A record with the same key is replaced; auto-increment collections assign a key when the record has none.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 2 && args[1] != "-" {
				//nolint:gosec // G304: file path is provided by the user
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read record: %w", err)
			}

			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			key, err := usecase.NewRecords(dbCtx).Put(context.Background(), args[0], data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s/%s\n", args[0], key)
			return nil
		},
	}

	return cmd
}
