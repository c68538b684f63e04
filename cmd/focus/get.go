package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/usecase"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <collection> <key>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCtx, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = database.CloseDatabase(dbCtx)
			}()

			records := usecase.NewRecords(dbCtx)
			key := records.KeyFor(args[0], args[1])
			data, err := records.Get(context.Background(), args[0], key)
			if err != nil {
				return err
			}

			docs, err := decodeDocuments([]database.Document{{Key: key, Data: data}})
			if err != nil {
				return err
			}
			return outputJSON(cmd, docs[0])
		},
	}

	return cmd
}
