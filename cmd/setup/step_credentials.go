// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/engine"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// attemptTimeout bounds a full connection attempt including the settle
// delays and the entire verification schedule
const attemptTimeout = 5 * time.Minute

// CredentialsTab collects the repository password (plus creation parameters
// for a new repository) and runs the connection attempt. The intent was
// fixed by the verification step and is not revisited here.
type CredentialsTab struct {
	width    int
	height   int
	settings *WizardSettings
	session  *repo.Session

	form         *huh.Form
	formComplete bool
	running      bool
	outcome      *repo.AttemptOutcome
	spinner      spinner.Model

	// Collected values
	password        string
	passwordConfirm string
	description     string
	hash            string
	encryption      string
	splitter        string
}

// NewCredentialsTab creates the credentials tab
func NewCredentialsTab(settings *WizardSettings, session *repo.Session) *CredentialsTab {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(config.CurrentTheme.GetSecondaryColor())

	return &CredentialsTab{
		settings: settings,
		session:  session,
		spinner:  s,
	}
}

// Init implements TabModel interface
func (t *CredentialsTab) Init() tea.Cmd {
	if t.hash == "" {
		t.hash = config.GetCreateHash()
	}
	if t.encryption == "" {
		t.encryption = config.GetCreateEncryption()
	}
	if t.splitter == "" {
		t.splitter = config.GetCreateSplitter()
	}

	t.form = t.buildForm()
	return t.form.Init()
}

// buildForm creates the intent-specific credential form. Connecting needs
// only the existing password; creating also confirms it and picks the block
// format parameters.
func (t *CredentialsTab) buildForm() *huh.Form {
	if t.settings.Intent == repo.IntentConnect {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Repository Password").
					Placeholder("Enter the existing repository password").
					EchoMode(huh.EchoModePassword).
					Value(&t.password).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("password is required")
						}
						return nil
					}),
			),
		)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Repository Password").
				Placeholder("Choose a password for the new repository").
				EchoMode(huh.EchoModePassword).
				Value(&t.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Confirm Password").
				Placeholder("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&t.passwordConfirm).
				Validate(func(s string) error {
					if s != t.password {
						return errors.New("passwords do not match")
					}
					return nil
				}),

			huh.NewInput().
				Title("Description").
				Description("Optional label for the repository").
				Value(&t.description),

			huh.NewSelect[string]().
				Title("Hash Algorithm").
				Options(
					huh.NewOption("BLAKE3-256", "BLAKE3-256"),
					huh.NewOption("BLAKE2B-256", "BLAKE2B-256"),
					huh.NewOption("SHA-256", "SHA-256"),
				).
				Value(&t.hash),

			huh.NewSelect[string]().
				Title("Encryption").
				Options(
					huh.NewOption("AES-256 GCM", "AES256-GCM"),
					huh.NewOption("ChaCha20-Poly1305", "CHACHA20-POLY1305"),
				).
				Value(&t.encryption),

			huh.NewSelect[string]().
				Title("Splitter").
				Options(
					huh.NewOption("Dynamic 4 MiB", "DYNAMIC-4M"),
					huh.NewOption("Dynamic 8 MiB", "DYNAMIC-8M"),
					huh.NewOption("Fixed 4 MiB", "FIXED-4M"),
				).
				Value(&t.splitter),
		),
	)
}

// Update implements TabModel interface
func (t *CredentialsTab) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		if t.form != nil {
			t.form.WithWidth(msg.Width)
		}
		return t, nil

	case AttemptFinishedMsg:
		t.running = false
		if msg.Error != nil {
			// Local precondition failure; never reached through the form
			// flow because submission is disabled while running
			return t, func() tea.Msg { return TabErrorMsg{TabIndex: 3, Error: msg.Error} }
		}
		outcome := msg.Outcome
		t.outcome = &outcome

		if outcome.Kind == repo.OutcomeSucceeded {
			return t, func() tea.Msg { return TabCompleteMsg{TabIndex: 3} }
		}

		// Failed or timed out: clear the password and reopen the form so
		// the user can retry or go back
		t.password = ""
		t.passwordConfirm = ""
		t.formComplete = false
		t.form = t.buildForm()
		return t, t.form.Init()

	case spinner.TickMsg:
		if t.running {
			var cmd tea.Cmd
			t.spinner, cmd = t.spinner.Update(msg)
			return t, cmd
		}
		return t, nil
	}

	// The attempt is in flight; drop all input until it reports back
	if t.running {
		return t, nil
	}

	var cmd tea.Cmd
	if t.form != nil {
		form, formCmd := t.form.Update(msg)
		t.form = form.(*huh.Form)
		cmd = formCmd
	}

	if t.form != nil && t.form.State == huh.StateCompleted && !t.formComplete {
		t.formComplete = true
		t.running = true
		t.outcome = nil

		t.settings.Password = t.password
		t.settings.Description = t.description
		t.settings.Algorithms = engine.Algorithms{
			Hash:       t.hash,
			Encryption: t.encryption,
			Splitter:   t.splitter,
		}
		log.Debugf("credentials.Update: submitting %s attempt", t.settings.Intent)

		return t, tea.Batch(
			t.spinner.Tick,
			t.runAttempt(),
			cmd,
		)
	}

	return t, cmd
}

// runAttempt drives the orchestrator in the background
func (t *CredentialsTab) runAttempt() tea.Cmd {
	target := t.settings.Target
	intent := t.settings.Intent
	creds := repo.Credentials{
		Password:    t.settings.Password,
		Description: t.settings.Description,
		Algorithms:  t.settings.Algorithms,
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
		defer cancel()

		outcome, err := t.session.Run(ctx, target, intent, creds)
		return AttemptFinishedMsg{Outcome: outcome, Error: err}
	}
}

// View implements TabModel interface
func (t *CredentialsTab) View() string {
	theme := config.CurrentTheme

	if t.running {
		verb := "Connecting to repository..."
		if t.settings.Intent == repo.IntentCreate {
			verb = "Creating repository..."
		}
		return lipgloss.JoinVertical(
			lipgloss.Left,
			"",
			t.spinner.View()+" "+verb,
			"",
			theme.SubtleStyle().Render("This can take a little while for remote storage."),
		)
	}

	if t.outcome != nil && t.outcome.Kind == repo.OutcomeSucceeded {
		status := t.outcome.Status
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.GetPrimaryColor()).
			Render("Repository Connected")

		lines := []string{
			"",
			title,
			"",
			theme.CompleteIndicator() + " Storage:    " + status.StorageKind,
			theme.CompleteIndicator() + " Hash:       " + status.Hash,
			theme.CompleteIndicator() + " Encryption: " + status.Encryption,
			theme.CompleteIndicator() + " Splitter:   " + status.Splitter,
			"",
			theme.SubtleStyle().Render("Press q to leave the wizard."),
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	var header string
	if t.outcome != nil {
		header = theme.ErrorMessage(t.outcome.Message) + "\n\n"
	}

	formView := ""
	if t.form != nil {
		formView = t.form.View()
	}
	return header + formView
}

// IsComplete implements TabModel interface
func (t *CredentialsTab) IsComplete() bool {
	return t.outcome != nil && t.outcome.Kind == repo.OutcomeSucceeded
}

// Busy reports whether the connection attempt is in flight. The wizard
// blocks back navigation while busy.
func (t *CredentialsTab) Busy() bool {
	return t.running
}

// GetState implements TabModel interface
func (t *CredentialsTab) GetState() ui.TabState {
	if t.outcome != nil {
		switch t.outcome.Kind {
		case repo.OutcomeSucceeded:
			return ui.TabComplete
		default:
			return ui.TabError
		}
	}
	return ui.TabActive
}

// ClearPassword wipes the collected secrets. Called when the user navigates
// back out of this step.
func (t *CredentialsTab) ClearPassword() {
	t.password = ""
	t.passwordConfirm = ""
}
