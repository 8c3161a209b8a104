// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"github.com/spf13/cobra"
)

// NewEngineCmd creates the engine command group
func NewEngineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Manage the cofferd engine",
		Long: `Manage the cofferd backup engine.

cofferd does all actual repository work; the coffer CLI only drives it over
a JSON-RPC unix socket. These commands check engine liveness and run a stub
engine for development and testing.`,
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPingCmd())

	return cmd
}
