// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// Tab indices
const (
	tabProvider = iota
	tabConfigure
	tabVerify
	tabCredentials
)

// WizardModel orchestrates the setup wizard tabs
type WizardModel struct {
	width  int
	height int

	tabs      []ui.Tab
	activeTab int
	settings  *WizardSettings
	session   *repo.Session
	profiles  []config.Profile
	quitting  bool
	err       error

	// Tab instances - stored separately since they're different types
	providerTab    *ProviderTab
	configureTab   *ConfigureTab
	verifyTab      *VerifyTab
	credentialsTab *CredentialsTab
}

// NewWizardModel creates the setup wizard over the given session. Recent
// profiles are offered on the first step when any exist.
func NewWizardModel(session *repo.Session, profiles []config.Profile) WizardModel {
	tabs := []ui.Tab{
		{Title: "Provider", State: ui.TabActive},
		{Title: "Configure", State: ui.TabPending},
		{Title: "Verify", State: ui.TabPending},
		{Title: "Credentials", State: ui.TabPending},
	}

	for i := range tabs {
		s := spinner.New()
		s.Spinner = spinner.Dot
		s.Style = lipgloss.NewStyle().Foreground(config.CurrentTheme.GetSecondaryColor())
		tabs[i].Spinner = s
	}

	// Settings stored as pointer so tabs always see latest values
	settings := &WizardSettings{}

	return WizardModel{
		tabs:           tabs,
		activeTab:      tabProvider,
		settings:       settings,
		session:        session,
		profiles:       profiles,
		providerTab:    NewProviderTab(profiles),
		configureTab:   NewConfigureTab(settings),
		verifyTab:      NewVerifyTab(settings, session.Engine()),
		credentialsTab: NewCredentialsTab(settings, session),
	}
}

// Init implements tea.Model
func (m WizardModel) Init() tea.Cmd {
	return m.providerTab.Init()
}

// Update implements tea.Model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	log.Debugf("wizard.Update: msg=%T activeTab=%d w=%d h=%d", msg, m.activeTab, m.width, m.height)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Forward to all tabs, collecting any commands they return
		var cmds []tea.Cmd
		var cmd tea.Cmd

		m.providerTab, cmd = m.providerTab.Update(msg)
		cmds = append(cmds, cmd)
		m.configureTab, cmd = m.configureTab.Update(msg)
		cmds = append(cmds, cmd)
		var model tea.Model
		model, cmd = m.verifyTab.Update(msg)
		m.verifyTab = model.(*VerifyTab)
		cmds = append(cmds, cmd)
		model, cmd = m.credentialsTab.Update(msg)
		m.credentialsTab = model.(*CredentialsTab)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		// Only allow quitting from final tab when complete
		if msg.String() == "q" && m.activeTab == tabCredentials && m.tabs[tabCredentials].State == ui.TabComplete {
			m.quitting = true
			return m, tea.Quit
		}

		// Allow Ctrl+C to quit anytime
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

		// ESC steps back one tab, but never while an attempt is in flight
		if msg.String() == "esc" {
			return m.goBack()
		}

	case SettingsUpdateMsg:
		// Merge settings from tab (in-place update to pointer)
		*m.settings = mergeSettings(*m.settings, msg.Settings)
		return m, nil

	case TabCompleteMsg:
		m.tabs[msg.TabIndex].State = ui.TabComplete
		log.Debugf("wizard.TabCompleteMsg: tabIndex=%d advancing to %d", msg.TabIndex, msg.TabIndex+1)

		// Advance to next tab if not at the end
		if msg.TabIndex < len(m.tabs)-1 {
			m.activeTab = msg.TabIndex + 1
			m.tabs[m.activeTab].State = ui.TabActive

			// Recreate the next tab so it picks up the latest settings
			var initCmd tea.Cmd
			switch m.activeTab {
			case tabConfigure:
				m.configureTab = NewConfigureTab(m.settings)
				initCmd = m.configureTab.Init()
			case tabVerify:
				m.verifyTab = NewVerifyTab(m.settings, m.session.Engine())
				initCmd = m.verifyTab.Init()
			case tabCredentials:
				m.credentialsTab = NewCredentialsTab(m.settings, m.session)
				initCmd = m.credentialsTab.Init()
			}

			return m, initCmd
		}
		return m, nil

	case TabErrorMsg:
		m.tabs[msg.TabIndex].State = ui.TabError
		m.err = msg.Error
		return m, nil

	case AttemptFinishedMsg:
		// Record a reuse profile on success, then let the credentials tab
		// render the outcome
		if msg.Error == nil && msg.Outcome.Kind == repo.OutcomeSucceeded {
			m.saveProfile()
		}
	}

	// Delegate to active tab
	var cmd tea.Cmd
	switch m.activeTab {
	case tabProvider:
		m.providerTab, cmd = m.providerTab.Update(msg)
	case tabConfigure:
		m.configureTab, cmd = m.configureTab.Update(msg)
	case tabVerify:
		var model tea.Model
		model, cmd = m.verifyTab.Update(msg)
		m.verifyTab = model.(*VerifyTab)
	case tabCredentials:
		var model tea.Model
		model, cmd = m.credentialsTab.Update(msg)
		m.credentialsTab = model.(*CredentialsTab)
	}

	// Update tab state from the active tab model
	activeTabModel := m.getActiveTabModel()
	if activeTabModel != nil {
		m.tabs[m.activeTab].State = activeTabModel.GetState()
	}

	return m, cmd
}

// goBack steps to the previous tab. Secrets collected on the credentials
// step never survive backward navigation, and a fixed intent is unfixed
// when the verification step is left.
func (m WizardModel) goBack() (tea.Model, tea.Cmd) {
	if m.activeTab == tabProvider {
		return m, nil
	}
	if m.activeTab == tabCredentials && m.credentialsTab.Busy() {
		return m, nil
	}

	if m.activeTab == tabCredentials {
		m.credentialsTab.ClearPassword()
		m.settings.Password = ""
	}
	if m.activeTab == tabVerify {
		m.settings.IntentFixed = false
	}

	m.tabs[m.activeTab].State = ui.TabPending
	m.activeTab--
	m.tabs[m.activeTab].State = ui.TabActive
	log.Debugf("wizard.goBack: now at tab %d", m.activeTab)

	// Recreate the tab we land on so its form starts fresh with current
	// settings
	var initCmd tea.Cmd
	switch m.activeTab {
	case tabProvider:
		m.providerTab = NewProviderTab(m.profiles)
		initCmd = m.providerTab.Init()
	case tabConfigure:
		m.configureTab = NewConfigureTab(m.settings)
		initCmd = m.configureTab.Init()
	case tabVerify:
		m.verifyTab = NewVerifyTab(m.settings, m.session.Engine())
		initCmd = m.verifyTab.Init()
	}

	return m, initCmd
}

// saveProfile records the connected target for quick reuse. Failures only
// log; profile persistence is best effort.
func (m WizardModel) saveProfile() {
	path := config.GlobalPaths.ProfilesPath()
	profiles, err := config.LoadProfiles(path)
	if err != nil {
		log.Warnf("wizard.saveProfile: %v", err)
		return
	}

	name := m.settings.Description
	if name == "" {
		name = m.settings.Target.Describe()
	}
	profiles.Upsert(config.Profile{
		Name:     name,
		Provider: string(m.settings.Target.Provider),
		Location: m.settings.Target.Describe(),
		Params:   m.settings.Target.ProfileParams(),
	})

	if err := profiles.Save(path); err != nil {
		log.Warnf("wizard.saveProfile: %v", err)
	}
}

// View implements tea.Model
func (m WizardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// The attempt blocks all input, so a modal replaces the tab layout
	// until it reports back
	if m.activeTab == tabCredentials && m.credentialsTab.Busy() {
		title := "Connecting to Repository"
		if m.settings.Intent == repo.IntentCreate {
			title = "Creating Repository"
		}
		return ui.RenderProgressModal(
			title,
			m.settings.Target.Describe(),
			m.credentialsTab.spinner.View(),
			"This can take a little while for remote storage.",
			m.width, m.height, 60,
		)
	}

	tabsCfg := ui.TabsConfig{
		ActiveIndex: m.activeTab,
		Width:       m.width,
	}
	tabsView := ui.RenderTabs(m.tabs, tabsCfg)

	contentHeight := m.height - 4 // Account for tabs and padding
	var activeContent string
	switch m.activeTab {
	case tabProvider:
		activeContent = m.providerTab.View()
	case tabConfigure:
		activeContent = m.configureTab.View()
	case tabVerify:
		activeContent = m.verifyTab.View()
	case tabCredentials:
		activeContent = m.credentialsTab.View()
	}

	content := ui.RenderTabContent(
		activeContent,
		m.width-2,
		contentHeight,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		tabsView,
		content,
	)
}

// getActiveTabModel returns the active tab model for state checking
func (m WizardModel) getActiveTabModel() interface {
	GetState() ui.TabState
} {
	switch m.activeTab {
	case tabProvider:
		return m.providerTab
	case tabConfigure:
		return m.configureTab
	case tabVerify:
		return m.verifyTab
	case tabCredentials:
		return m.credentialsTab
	default:
		return nil
	}
}

// mergeSettings combines old and new settings (new overrides old)
func mergeSettings(old, new WizardSettings) WizardSettings {
	if new.Target.Provider != "" {
		old.Target = new.Target
	}
	if new.IntentFixed {
		old.Intent = new.Intent
		old.IntentFixed = true
	}
	if new.Password != "" {
		old.Password = new.Password
	}
	if new.Description != "" {
		old.Description = new.Description
	}
	if new.Algorithms.Hash != "" {
		old.Algorithms = new.Algorithms
	}
	return old
}
