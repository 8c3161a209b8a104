// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/cmd/cmdutil"
	"github.com/coffer-backup/coffer/pkg/config"
	repopkg "github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

func newDisconnectCmd() *cobra.Command {
	var (
		timeout time.Duration
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect from the current repository",
		Long: `Disconnects cofferd from the currently connected repository.

Backups stop until a repository is connected again. The repository itself
and its data are untouched.`,
		Example: `  # Disconnect with confirmation prompt
  coffer repo disconnect

  # Disconnect without prompting
  coffer repo disconnect --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := cmdutil.NewEngineClient()
			theme := config.CurrentTheme

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			status, err := client.Status(ctx)
			if err != nil {
				kind := repopkg.Classify(err)
				return fmt.Errorf("%s", kind.Message())
			}

			if !status.Connected {
				fmt.Println("Not connected to a repository")
				return nil
			}

			if !yes && cmdutil.IsInteractive() {
				confirmed, err := ui.Confirm(fmt.Sprintf("Disconnect from the %s repository?", status.StorageKind))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := client.Disconnect(ctx); err != nil {
				kind := repopkg.Classify(err)
				return fmt.Errorf("%s", kind.Message())
			}

			fmt.Println(theme.SuccessMessage("Disconnected"))
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Timeout for the disconnect")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
