// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/config"
)

func newUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset [key]",
		Short: "Remove configuration value",
		Long:  `Remove a key from the user config file, reverting it to its default.`,
		Args:  cobra.ExactArgs(1),
		Example: `  # Revert the verification schedule to its default
  coffer config unset verify.attempts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if err := config.UnsetConfigValue(key); err != nil {
				return err
			}

			fmt.Printf("Unset %s (%s)\n", key, config.UserConfigPath())
			return nil
		},
	}

	return cmd
}
