// Package support implements the diagnostics subcommand: it prints the
// effective configuration so users can attach it to bug reports.
package support

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/reefnet-go/internal/conf"
)

// Command creates the support command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "support",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to marshal settings: %w", err)
			}
			cmd.Println(string(out))
			return nil
		},
	}
}
