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

// attemptTimeout bounds a full connection attempt including the settle
// delays and the entire verification schedule
const attemptTimeout = 5 * time.Minute

func newConnectCmd() *cobra.Command {
	var targetFlags cmdutil.TargetFlags

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to an existing repository",
		Long: `Connects cofferd to an existing repository at the given storage location.

Any currently connected repository is disconnected first. The repository
password is read from the COFFER_REPO_PASSWORD environment variable, from
piped stdin, or from an interactive prompt.`,
		Example: `  # Connect to a local repository
  COFFER_REPO_PASSWORD="secret" coffer repo connect \
    --provider filesystem --path /mnt/backups/repo

  # Connect to an S3 repository (password via stdin)
  echo "secret" | coffer repo connect \
    --provider s3 \
    --s3-endpoint s3.us-east-1.amazonaws.com \
    --s3-bucket my-backups \
    --s3-access-key AKIA... --s3-secret-key ...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetFlags.Target()
			if err != nil {
				return err
			}

			password, err := cmdutil.GetRepoPassword("Repository password")
			if err != nil {
				return err
			}

			creds := repopkg.Credentials{Password: password}
			return runAttempt(target, repopkg.IntentConnect, creds)
		},
	}

	cmdutil.AddTargetFlags(cmd, &targetFlags)

	return cmd
}

// runAttempt drives one orchestrated connection attempt and prints the
// outcome
func runAttempt(target repopkg.StorageTarget, intent repopkg.ConnectionIntent, creds repopkg.Credentials) error {
	session := cmdutil.NewSession()
	theme := config.CurrentTheme

	ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
	defer cancel()

	outcome, err := session.Run(ctx, target, intent, creds)
	if err != nil {
		return err
	}

	if outcome.Kind != repopkg.OutcomeSucceeded {
		return fmt.Errorf("%s", outcome.Message)
	}

	fmt.Println(theme.SuccessMessage("Repository connected"))
	fmt.Println()
	fmt.Println(theme.CompleteIndicator() + " Storage:    " + outcome.Status.StorageKind)
	fmt.Println(theme.CompleteIndicator() + " Hash:       " + outcome.Status.Hash)
	fmt.Println(theme.CompleteIndicator() + " Encryption: " + outcome.Status.Encryption)
	fmt.Println(theme.CompleteIndicator() + " Splitter:   " + outcome.Status.Splitter)

	return nil
}
