// Package cli implements fitappctl, the operator command line for the
// FitAppKid backend.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/app"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/config"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
)

// RootOptions holds global flags for all commands. Empty values fall back
// to the environment.
type RootOptions struct {
	DBType      string
	DBPath      string
	DatabaseURL string
	LogMode     string
}

// NewRootCommand creates the root command for fitappctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fitappctl",
		Short: "FitAppKid administration",
		Long:  "Operator tooling for the FitAppKid backend: schema migrations, catalog seeding, family exports and test tokens.",
		// main prints the returned error
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBType, "db-type", "", "database type (sqlite|postgres|mysql), overrides DB_TYPE")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db-path", "", "sqlite database file, overrides DB_PATH")
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", "", "postgres or mysql DSN, overrides DATABASE_URL")
	cmd.PersistentFlags().StringVar(&opts.LogMode, "log-mode", "", "log mode (development|production), overrides LOG_MODE")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.DBType != "" {
		cfg.DatabaseType = o.DBType
	}
	if o.DBPath != "" {
		cfg.DatabasePath = o.DBPath
	}
	if o.DatabaseURL != "" {
		cfg.DatabaseURL = o.DatabaseURL
	}
	if o.LogMode != "" {
		cfg.LogMode = o.LogMode
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp loads configuration and connects to the database. The caller
// closes the returned app.
func (o *RootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, log)
}
