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
)

func newStatusCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current repository connection",
		Long: `Shows whether a repository is connected and, if so, its storage backend
and block format parameters.`,
		Example: `  coffer repo status`,
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

			fmt.Println(theme.SuccessMessage("Connected"))
			fmt.Println()
			fmt.Println("  Storage:    " + status.StorageKind)
			fmt.Println("  Hash:       " + status.Hash)
			fmt.Println("  Encryption: " + status.Encryption)
			fmt.Println("  Splitter:   " + status.Splitter)
			if status.Username != "" || status.Hostname != "" {
				fmt.Printf("  Identity:   %s@%s\n", status.Username, status.Hostname)
			}
			if status.ReadOnly {
				fmt.Println("  Mode:       read-only")
			}

			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Timeout for the status query")

	return cmd
}
