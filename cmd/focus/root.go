package main

import (
	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/config"
	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/logging"
	"github.com/focus-md/focus/internal/schema"
)

var rootCmd = &cobra.Command{
	Use:     "focus",
	Short:   "focus - the local document store behind the focus productivity app",
	Long:    "focus inspects, queries, migrates and backs up the versioned document store holding tasks, projects, goals, time logs and the rest of the focus data.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		config.Init()
		if err := config.BindFlags(cmd.Root().PersistentFlags()); err != nil {
			return err
		}
		settings, err := config.Load()
		if err != nil {
			return err
		}
		return logging.Init(settings.LogLevel)
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to the store database (default: $FOCUS_DIR/focus.db)")
	flags.String("store", config.DefaultStore, "Name of the store inside the database file")
	flags.Int("schema-version", 0, "Schema version to open the store at (default: latest)")
	flags.Duration("blocked-timeout", config.DefaultBlockedTimeout, "How long an open waits for other handles before failing as blocked")
	flags.Duration("busy-timeout", config.DefaultBusyTimeout, "SQLite busy timeout")
	flags.Int64("max-handles", config.DefaultMaxHandles, "Maximum number of concurrently open handles")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, or error")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newPutCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newBackupsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newMCPCmd())
}

// storeConfig turns the loaded settings into a database configuration.
func storeConfig() (database.Config, error) {
	settings, err := config.Load()
	if err != nil {
		return database.Config{}, err
	}
	registry, err := schema.FocusStore(settings.Store)
	if err != nil {
		return database.Config{}, err
	}
	return database.Config{
		Path:           settings.DBPath,
		Registry:       registry,
		Version:        settings.Version,
		BlockedTimeout: settings.BlockedTimeout,
		BusyTimeout:    settings.BusyTimeout,
		MaxHandles:     settings.MaxHandles,
	}, nil
}

// openStore opens the store described by the current settings.
func openStore() (*database.Context, error) {
	cfg, err := storeConfig()
	if err != nil {
		return nil, err
	}
	return database.CreateDatabase(cfg)
}
