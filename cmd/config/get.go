// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/config"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value",
		Long: `Get a configuration value and show its source.

The source indicates where the value comes from in precedence order:
  - ENV: Environment variable (COFFER_*)
  - User config file (~/.config/coffer/config.yaml)
  - Built-in default value`,
		Args: cobra.ExactArgs(1),
		Example: `  # Get a configuration value
  coffer config get use-tui

  # Get nested value
  coffer config get engine.socket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			configValue, err := config.GetConfigValue(key)
			if err != nil {
				return err
			}

			fmt.Printf("%s = %v (%s)\n", configValue.Key, configValue.Value, configValue.Source)
			return nil
		},
	}

	return cmd
}
