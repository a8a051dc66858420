// Package cli provides the command-line interface for sqlbind.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbind/internal/cli/commands"
	"github.com/leapstack-labs/sqlbind/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlbind",
		Short: "sqlbind - type-safe SQL mapping toolkit",
		Long: `sqlbind maps Go model types to database tables with dialect-aware SQL
and an idempotent schema version-upgrade protocol.

The CLI inspects databases managed by the library: registered dialect
bindings and the version records the upgrade coordinator maintains.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(config.NewContext(cmd.Context(), cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlbind.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "database/sql driver name (sqlite, pgx, duckdb)")
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewVersionsCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
