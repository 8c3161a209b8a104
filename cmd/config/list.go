// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/config"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all configuration values",
		Long: `List all known configuration keys with their values and sources.

Output format: key = value (source)`,
		Example: `  # List all configuration
  coffer config list

  # Example output:
  # create.hash = BLAKE3-256 (default)
  # engine.socket = /run/user/1000/cofferd.sock (default)
  # log-level = debug (from ~/.config/coffer/config.yaml)
  # use-tui = false (from ENV: COFFER_USE_TUI)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, def := range config.KnownKeys() {
				cv, err := config.GetConfigValue(def.Key)
				if err != nil {
					return err
				}
				fmt.Printf("%s = %v (%s)\n", cv.Key, cv.Value, cv.Source)
			}

			fmt.Println("\n" + config.CurrentTheme.SubtleStyle().Render("Configuration precedence: ENV > user config > defaults"))
			return nil
		},
	}

	return cmd
}
