// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// existsCheckTimeout bounds the storage existence probe
const existsCheckTimeout = 30 * time.Second

// Custom messages for async flow
type checkStorageMsg struct{}
type storageCheckedMsg struct {
	exists bool
	err    error
}

// VerifyTab probes the storage target for an existing repository. The
// outcome fixes the connection intent for the rest of the wizard: an
// existing repository is connected to, a missing one is created. The
// intent is never re-derived after this step.
type VerifyTab struct {
	width    int
	height   int
	settings *WizardSettings
	eng      repo.Engine

	checking bool
	checked  bool
	exists   bool
	err      error
	spinner  spinner.Model
}

// NewVerifyTab creates the storage verification tab
func NewVerifyTab(settings *WizardSettings, eng repo.Engine) *VerifyTab {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(config.CurrentTheme.GetSecondaryColor())

	return &VerifyTab{
		settings: settings,
		eng:      eng,
		spinner:  s,
	}
}

// Init implements TabModel interface
func (t *VerifyTab) Init() tea.Cmd {
	return tea.Batch(
		t.spinner.Tick,
		func() tea.Msg { return checkStorageMsg{} },
	)
}

// Update implements TabModel interface
func (t *VerifyTab) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		return t, nil

	case checkStorageMsg:
		t.checking = true
		t.checked = false
		t.err = nil
		return t, tea.Batch(t.spinner.Tick, t.checkStorage())

	case storageCheckedMsg:
		t.checking = false
		t.checked = true
		t.exists = msg.exists
		t.err = msg.err
		if t.err != nil {
			log.Warnf("verify.Update: existence check failed: %v", t.err)
			return t, nil
		}

		// Fix the intent here; later steps and the orchestrator take it
		// as given
		intent := repo.IntentCreate
		if t.exists {
			intent = repo.IntentConnect
		}
		t.settings.Intent = intent
		t.settings.IntentFixed = true
		log.Debugf("verify.Update: exists=%v intent=%s", t.exists, intent)
		return t, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if t.checked && t.err == nil {
				return t, func() tea.Msg { return TabCompleteMsg{TabIndex: 2} }
			}
		case "r":
			// Retry re-runs the existence check only; it never submits a
			// connection attempt
			if t.checked && t.err != nil {
				return t, func() tea.Msg { return checkStorageMsg{} }
			}
		}

	case spinner.TickMsg:
		if t.checking {
			var cmd tea.Cmd
			t.spinner, cmd = t.spinner.Update(msg)
			return t, cmd
		}
	}

	return t, nil
}

// checkStorage performs the existence probe against the engine
func (t *VerifyTab) checkStorage() tea.Cmd {
	storage := t.settings.Target.Wire()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), existsCheckTimeout)
		defer cancel()

		exists, err := t.eng.RepositoryExists(ctx, storage)
		return storageCheckedMsg{exists: exists, err: err}
	}
}

// View implements TabModel interface
func (t *VerifyTab) View() string {
	theme := config.CurrentTheme

	if t.checking {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			"",
			t.spinner.View()+" Checking storage location...",
			"",
			theme.SubtleStyle().Render(t.settings.Target.Describe()),
		)
	}

	if t.err != nil {
		kind := repo.Classify(t.err)
		return lipgloss.JoinVertical(
			lipgloss.Left,
			"",
			theme.ErrorMessage("Could not check the storage location"),
			"",
			theme.SubtleStyle().Render(kind.Message()),
			"",
			ui.VerifyKeyBindings().Render(theme.SubtleStyle()),
		)
	}

	if t.checked {
		var headline, detail string
		if t.exists {
			headline = "Repository found"
			detail = "An existing repository was found at this location. You will be asked for its password to connect."
		} else {
			headline = "No repository found"
			detail = "No repository exists at this location yet. A new one will be created with a password you choose."
		}

		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.GetPrimaryColor()).
			Render(headline)

		return lipgloss.JoinVertical(
			lipgloss.Left,
			"",
			title,
			"",
			detail,
			"",
			theme.SubtleStyle().Render(t.settings.Target.Describe()),
			"",
			theme.SubtleStyle().Render("[ENTER] Continue"),
		)
	}

	return ""
}

// IsComplete implements TabModel interface
func (t *VerifyTab) IsComplete() bool {
	return t.checked && t.err == nil
}

// GetState implements TabModel interface
func (t *VerifyTab) GetState() ui.TabState {
	if t.err != nil {
		return ui.TabError
	}
	return ui.TabActive
}
