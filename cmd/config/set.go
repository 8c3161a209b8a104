// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/config"
)

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set configuration value",
		Long: `Set a configuration key to a value in the user config file.

Keys use dot notation for nested values (e.g., engine.socket). Values are
validated against the key's type before writing.`,
		Args: cobra.ExactArgs(2),
		Example: `  # Set boolean values
  coffer config set use-tui false

  # Set string values
  coffer config set log-level debug
  coffer config set create.hash BLAKE3-256

  # Set numeric values
  coffer config set verify.attempts 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if err := config.SetConfigValue(key, value); err != nil {
				return err
			}

			fmt.Printf("Set %s = %s (%s)\n", key, value, config.UserConfigPath())
			return nil
		},
	}

	return cmd
}
