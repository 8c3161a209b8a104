// SPDX-License-Identifier: Apache-2.0
package config

import (
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage coffer configuration",
		Long: `Manage coffer configuration settings.

Configuration precedence (highest to lowest):
  1. Environment variables (COFFER_*)
  2. User config (~/.config/coffer/config.yaml)
  3. Defaults

Keys use dot notation for nested values (e.g., engine.socket).`,
		Example: `  # Set configuration values
  coffer config set use-tui false
  coffer config set log-level debug
  coffer config set verify.attempts 30

  # Get a configuration value
  coffer config get engine.socket

  # Remove a configuration value
  coffer config unset verify.attempts

  # List all configuration
  coffer config list`,
	}

	// Add subcommands
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newUnsetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
