// Package cmd provides the mynotes command line: the HTTP/websocket server,
// schema migrations and a terminal assistant session.
package cmd

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"mynotes/config"
	"mynotes/config/database"
	"mynotes/internal/data/repository"
	"mynotes/internal/data/service"
	"mynotes/pkg/logger"
)

// Global flags.
var (
	flagConfig   string
	flagLogLevel string
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mynotes",
	Short: "Notes, tasks and calendar backend with an AI assistant",
	Long: `mynotes serves the notes/todos/calendar API, the assistant proxy and
the assistant websocket.

Examples:
  mynotes serve
  mynotes serve --migrate
  mynotes migrate status
  mynotes chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			cfg.LogLevel = flagLogLevel
		}
		logger.Init(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "",
		"Path to config.toml (default: $XDG_CONFIG_HOME/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(chatCmd)
}

// connect opens the datastore. A nil db with a nil error means none is
// configured and the store runs on seed data.
func connect(ctx context.Context) (*sql.DB, error) {
	delay, err := cfg.Database.Delay()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, cfg.Database.DSN(), cfg.Database.Retries, delay)
	if errors.Is(err, database.ErrNotConfigured) {
		return nil, nil
	}
	return db, err
}

// openStore connects to the datastore when possible and loads the local
// mirror. A datastore that cannot be reached is not fatal.
func openStore(ctx context.Context, opts ...service.Option) (*service.Store, *sql.DB) {
	db, err := connect(ctx)
	if err != nil {
		logger.Sugar.Warnf("Could not connect to database, using local data: %v", err)
		db = nil
	}

	var store *service.Store
	if db != nil {
		store = service.NewStore(repository.NewDataRepository(db), opts...)
	} else {
		logger.Sugar.Info("No database configured, using local data")
		store = service.NewStore(nil, opts...)
	}
	store.Load(ctx)
	return store, db
}
