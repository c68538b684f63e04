package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/filesystem"
	"github.com/focus-md/focus/internal/usecase"
)

func newBackupsCmd() *cobra.Command {
	var (
		prune  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List saved backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			uc := usecase.NewBackup(dbCtx)
			if cmd.Flags().Changed("prune") {
				removed, err := uc.Prune(prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s)\n", removed)
			}

			backups, err := uc.List()
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(cmd, backups)
			}
			outputBackupsTable(cmd, backups)
			return nil
		},
	}

	cmd.Flags().IntVar(&prune, "prune", 0, "Delete all but the newest N backups before listing")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputBackupsTable(cmd *cobra.Command, backups []filesystem.BackupFile) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Created", "Size", "SHA-256"})

	for _, b := range backups {
		hash := b.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		t.AppendRow(table.Row{b.Name, b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, hash})
	}

	t.Render()
}
