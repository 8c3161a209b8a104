// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/cmd/cmdutil"
	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/engine"
	"github.com/coffer-backup/coffer/pkg/repo"
)

// package-level flag variables bound to cobra flags
var (
	targetFlags     cmdutil.TargetFlags
	flagDescription string
	flagHash        string
	flagEncryption  string
	flagSplitter    string
)

// GetSetupCmd returns the cobra command for the setup subcommand.
// This is the exported entry point used by cmd/root.go.
func GetSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Connect to a backup repository",
		Long: `Walks through connecting coffer to a backup repository.

The wizard checks the storage location first: when a repository already
exists there you are asked for its password, otherwise a new repository is
created with a password you choose. Any previously connected repository is
disconnected before the new connection is made.

Interactive mode (default when stdin is a terminal and use-tui is true):
  Launches a step-by-step wizard.

Non-interactive mode (--provider required):
  Connects using the provided flags without any prompts. The repository
  password is read from the COFFER_REPO_PASSWORD environment variable or
  from stdin (piped input).`,
		Example: `  # Interactive wizard (when stdin is a TTY)
  coffer setup

  # Non-interactive, local filesystem repository
  COFFER_REPO_PASSWORD="secret" coffer setup \
    --provider filesystem --path /mnt/backups/repo

  # Non-interactive, S3 bucket (password via stdin)
  echo "secret" | coffer setup \
    --provider s3 \
    --s3-endpoint s3.us-east-1.amazonaws.com \
    --s3-bucket my-backups \
    --s3-access-key AKIA... --s3-secret-key ...`,
		RunE: runSetup,
	}

	cmdutil.AddTargetFlags(cmd, &targetFlags)
	cmd.Flags().StringVar(&flagDescription, "description", "", "Optional repository description (used when creating)")
	cmd.Flags().StringVar(&flagHash, "hash", "", "Hash algorithm for a new repository")
	cmd.Flags().StringVar(&flagEncryption, "encryption", "", "Encryption algorithm for a new repository")
	cmd.Flags().StringVar(&flagSplitter, "splitter", "", "Splitter for a new repository")

	return cmd
}

// runSetup is the cobra RunE handler
func runSetup(cmd *cobra.Command, args []string) error {
	if cmdutil.IsInteractive() && targetFlags.Provider == "" {
		return runInteractive()
	}
	return runNonInteractive()
}

// runInteractive launches the Bubble Tea TUI wizard
func runInteractive() error {
	session := cmdutil.NewSession()

	profiles, err := config.LoadProfiles(config.GlobalPaths.ProfilesPath())
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewWizardModel(session, profiles.Recent()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	return nil
}

// runNonInteractive connects using flags only. The intent is fixed by the
// storage existence check, exactly as in the wizard.
func runNonInteractive() error {
	target, err := targetFlags.Target()
	if err != nil {
		return err
	}

	password, err := cmdutil.GetRepoPassword("Repository password")
	if err != nil {
		return err
	}

	session := cmdutil.NewSession()

	ctx, cancel := context.WithTimeout(context.Background(), existsCheckTimeout)
	exists, err := session.Engine().RepositoryExists(ctx, target.Wire())
	cancel()
	if err != nil {
		kind := repo.Classify(err)
		return fmt.Errorf("could not check the storage location: %s", kind.Message())
	}

	intent := repo.IntentCreate
	if exists {
		intent = repo.IntentConnect
	}

	creds := repo.Credentials{
		Password:    password,
		Description: flagDescription,
		Algorithms:  resolveAlgorithms(),
	}

	theme := config.CurrentTheme
	if exists {
		fmt.Println("Existing repository found, connecting...")
	} else {
		fmt.Println("No repository found, creating a new one...")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	outcome, err := session.Run(ctx, target, intent, creds)
	if err != nil {
		return err
	}

	if outcome.Kind != repo.OutcomeSucceeded {
		return fmt.Errorf("%s", outcome.Message)
	}

	saveReuseProfile(target, flagDescription)

	fmt.Println(theme.SuccessMessage("Repository connected"))
	fmt.Println()
	fmt.Println(theme.CompleteIndicator() + " Storage:    " + outcome.Status.StorageKind)
	fmt.Println(theme.CompleteIndicator() + " Hash:       " + outcome.Status.Hash)
	fmt.Println(theme.CompleteIndicator() + " Encryption: " + outcome.Status.Encryption)
	fmt.Println(theme.CompleteIndicator() + " Splitter:   " + outcome.Status.Splitter)

	return nil
}

// resolveAlgorithms falls back to the configured creation defaults for any
// algorithm not given as a flag
func resolveAlgorithms() engine.Algorithms {
	algos := engine.Algorithms{
		Hash:       flagHash,
		Encryption: flagEncryption,
		Splitter:   flagSplitter,
	}
	if algos.Hash == "" {
		algos.Hash = config.GetCreateHash()
	}
	if algos.Encryption == "" {
		algos.Encryption = config.GetCreateEncryption()
	}
	if algos.Splitter == "" {
		algos.Splitter = config.GetCreateSplitter()
	}
	return algos
}

// saveReuseProfile records the target for the wizard's recent list. Best
// effort; failures only log through LoadProfiles' caller.
func saveReuseProfile(target repo.StorageTarget, description string) {
	path := config.GlobalPaths.ProfilesPath()
	profiles, err := config.LoadProfiles(path)
	if err != nil {
		return
	}

	name := description
	if name == "" {
		name = target.Describe()
	}
	profiles.Upsert(config.Profile{
		Name:     name,
		Provider: string(target.Provider),
		Location: target.Describe(),
		Params:   target.ProfileParams(),
	})
	_ = profiles.Save(path)
}
