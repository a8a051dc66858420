package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlbind/pkg/dialect"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered dialect bindings",
		Long: `Display every driver identity and package prefix with a registered
dialect. Identities not listed here resolve to the standard dialect.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, identity := range dialect.Bindings() {
				d, err := dialect.Resolve(identity)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", identity, d.Name())
			}
			return nil
		},
	}
}
