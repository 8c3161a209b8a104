// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"github.com/spf13/cobra"
)

// GetRepoCmd creates the repo command group
func GetRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the repository connection",
		Long: `Manage the connection between coffer and a backup repository.

All repository work happens in the cofferd engine; these commands drive it
over its control socket. Exactly one repository can be connected at a time.`,
	}

	// Add subcommands
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConnectCmd())
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newDisconnectCmd())

	return cmd
}
