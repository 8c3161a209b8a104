// SPDX-License-Identifier: Apache-2.0
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/cmd/cmdutil"
	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/engine"
	repopkg "github.com/coffer-backup/coffer/pkg/repo"
)

func newCreateCmd() *cobra.Command {
	var (
		targetFlags cmdutil.TargetFlags
		description string
		hash        string
		encryption  string
		splitter    string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new repository",
		Long: `Creates a new repository at the given storage location and connects to it.

The location is checked first; creating over an existing repository is
refused unless --force is given. Any currently connected repository is
disconnected before the new one is created.`,
		Example: `  # Create a local repository
  COFFER_REPO_PASSWORD="secret" coffer repo create \
    --provider filesystem --path /mnt/backups/repo

  # Create with explicit block format parameters
  COFFER_REPO_PASSWORD="secret" coffer repo create \
    --provider filesystem --path /mnt/backups/repo \
    --hash BLAKE3-256 --encryption AES256-GCM --splitter DYNAMIC-4M`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetFlags.Target()
			if err != nil {
				return err
			}

			session := cmdutil.NewSession()

			if !force {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				exists, err := session.Engine().RepositoryExists(ctx, target.Wire())
				cancel()
				if err != nil {
					kind := repopkg.Classify(err)
					return fmt.Errorf("could not check the storage location: %s", kind.Message())
				}
				if exists {
					return fmt.Errorf("a repository already exists at %s: use 'coffer repo connect', or --force to create anyway", target.Describe())
				}
			}

			password, err := cmdutil.GetRepoPassword("Password for the new repository")
			if err != nil {
				return err
			}

			algos := engine.Algorithms{Hash: hash, Encryption: encryption, Splitter: splitter}
			if algos.Hash == "" {
				algos.Hash = config.GetCreateHash()
			}
			if algos.Encryption == "" {
				algos.Encryption = config.GetCreateEncryption()
			}
			if algos.Splitter == "" {
				algos.Splitter = config.GetCreateSplitter()
			}

			creds := repopkg.Credentials{
				Password:    password,
				Description: description,
				Algorithms:  algos,
			}
			return runAttempt(target, repopkg.IntentCreate, creds)
		},
	}

	cmdutil.AddTargetFlags(cmd, &targetFlags)
	cmd.Flags().StringVar(&description, "description", "", "Optional repository description")
	cmd.Flags().StringVar(&hash, "hash", "", "Hash algorithm (default from config)")
	cmd.Flags().StringVar(&encryption, "encryption", "", "Encryption algorithm (default from config)")
	cmd.Flags().StringVar(&splitter, "splitter", "", "Splitter (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Create even if the location already holds a repository")

	return cmd
}
