// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/cmd/cmdutil"
	"github.com/coffer-backup/coffer/pkg/config"
)

func newPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check engine liveness",
		Long: `Performs the version handshake against the configured engine socket.

Exits non-zero when no engine is listening or the engine is too old for
this front-end.`,
		Example: `  # Ping the configured socket
  coffer engine ping

  # Ping with a custom timeout
  coffer engine ping --timeout 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cmdutil.NewEngineClient()

			start := time.Now()
			if err := client.Ping(timeout); err != nil {
				return fmt.Errorf("engine is not reachable: %w", err)
			}

			theme := config.CurrentTheme
			fmt.Println(theme.SuccessMessage(fmt.Sprintf("Engine is up (round-trip: %s)", time.Since(start))))
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Timeout for the handshake")

	return cmd
}
