package commands

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbind/internal/cli/config"
	"github.com/leapstack-labs/sqlbind/pkg/session"

	// Dialect implementations; importing them also registers their drivers.
	_ "github.com/leapstack-labs/sqlbind/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/sqlbind/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/sqlbind/pkg/dialects/sqlite"
)

// NewVersionsCommand creates the versions command.
func NewVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List schema version records",
		Long: `Display the version records the upgrade coordinator maintains in the
sqlbind_versions table. The (database) row is the whole-database marker.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			sess, err := openSession(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			records, err := sess.Versions()
			if err != nil {
				return fmt.Errorf("list version records: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCHEMA\tTABLE\tVERSION")
			for _, r := range records {
				schemaName, table := r.Schema, r.Table
				if schemaName == "" && table == "" {
					table = "(database)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", schemaName, table, r.Version)
			}
			return w.Flush()
		},
	}
}

func openSession(cfg *config.Config) (*session.Session, error) {
	var opts []session.Option
	if cfg.Verbose {
		opts = append(opts, session.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	sess, err := session.Open(cfg.Driver, cfg.DSN, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", cfg.Driver, err)
	}
	return sess, nil
}
