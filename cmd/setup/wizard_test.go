// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/coffer-backup/coffer/pkg/engine"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// stubEngine satisfies repo.Engine without a running cofferd
type stubEngine struct {
	exists    bool
	existsErr error
}

func (e *stubEngine) Status(ctx context.Context) (*engine.RepositoryStatus, error) {
	return &engine.RepositoryStatus{}, nil
}

func (e *stubEngine) Connect(ctx context.Context, storage engine.StorageConfig, password string) error {
	return nil
}

func (e *stubEngine) Create(ctx context.Context, params engine.CreateParams) error {
	return nil
}

func (e *stubEngine) Disconnect(ctx context.Context) error {
	return nil
}

func (e *stubEngine) RepositoryExists(ctx context.Context, storage engine.StorageConfig) (bool, error) {
	return e.exists, e.existsErr
}

func newTestWizard() WizardModel {
	session := repo.NewSession(&stubEngine{})
	return NewWizardModel(session, nil)
}

func TestWizardModel_Init(t *testing.T) {
	m := newTestWizard()

	if len(m.tabs) != 4 {
		t.Errorf("expected 4 tabs, got %d", len(m.tabs))
	}

	if m.activeTab != tabProvider {
		t.Errorf("expected activeTab %d, got %d", tabProvider, m.activeTab)
	}

	if m.tabs[0].State != ui.TabActive {
		t.Errorf("expected first tab to be active, got %v", m.tabs[0].State)
	}

	for i := 1; i < len(m.tabs); i++ {
		if m.tabs[i].State != ui.TabPending {
			t.Errorf("expected tab %d to be pending, got %v", i, m.tabs[i].State)
		}
	}
}

func TestWizardModel_TabCompleteMsg(t *testing.T) {
	m := newTestWizard()

	msg := TabCompleteMsg{TabIndex: tabProvider}
	updatedModel, _ := m.Update(msg)
	m = updatedModel.(WizardModel)

	if m.tabs[tabProvider].State != ui.TabComplete {
		t.Errorf("expected provider tab to be complete, got %v", m.tabs[tabProvider].State)
	}

	if m.activeTab != tabConfigure {
		t.Errorf("expected activeTab %d, got %d", tabConfigure, m.activeTab)
	}

	if m.tabs[tabConfigure].State != ui.TabActive {
		t.Errorf("expected configure tab to be active, got %v", m.tabs[tabConfigure].State)
	}
}

func TestWizardModel_SettingsUpdateMsg(t *testing.T) {
	m := newTestWizard()

	target := repo.StorageTarget{
		Provider:   repo.ProviderFilesystem,
		Filesystem: &repo.FilesystemTarget{Path: "/mnt/backups/repo"},
	}

	msg := SettingsUpdateMsg{Settings: WizardSettings{Target: target}}
	updatedModel, _ := m.Update(msg)
	m = updatedModel.(WizardModel)

	if m.settings.Target.Provider != repo.ProviderFilesystem {
		t.Errorf("expected target provider to be set, got %s", m.settings.Target.Provider)
	}

	if m.settings.Target.Filesystem.Path != "/mnt/backups/repo" {
		t.Errorf("expected target path to be set, got %s", m.settings.Target.Filesystem.Path)
	}
}

func TestWizardModel_WindowSizeMsg(t *testing.T) {
	m := newTestWizard()

	msg := tea.WindowSizeMsg{Width: 120, Height: 40}
	updatedModel, _ := m.Update(msg)
	m = updatedModel.(WizardModel)

	if m.width != 120 {
		t.Errorf("expected width 120, got %d", m.width)
	}

	if m.height != 40 {
		t.Errorf("expected height 40, got %d", m.height)
	}
}

func TestWizardModel_BackNavigation(t *testing.T) {
	m := newTestWizard()

	// Advance to the configure tab
	updatedModel, _ := m.Update(TabCompleteMsg{TabIndex: tabProvider})
	m = updatedModel.(WizardModel)

	// ESC steps back to the provider tab
	updatedModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(WizardModel)

	if m.activeTab != tabProvider {
		t.Errorf("expected activeTab %d after back, got %d", tabProvider, m.activeTab)
	}

	if m.tabs[tabConfigure].State != ui.TabPending {
		t.Errorf("expected configure tab to be pending, got %v", m.tabs[tabConfigure].State)
	}

	if m.tabs[tabProvider].State != ui.TabActive {
		t.Errorf("expected provider tab to be active, got %v", m.tabs[tabProvider].State)
	}
}

func TestWizardModel_BackFromFirstTabIsNoop(t *testing.T) {
	m := newTestWizard()

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(WizardModel)

	if m.activeTab != tabProvider {
		t.Errorf("expected activeTab to stay %d, got %d", tabProvider, m.activeTab)
	}
}

func TestWizardModel_BackFromCredentialsClearsPassword(t *testing.T) {
	m := newTestWizard()

	// Advance all the way to the credentials tab
	for i := tabProvider; i < tabCredentials; i++ {
		updatedModel, _ := m.Update(TabCompleteMsg{TabIndex: i})
		m = updatedModel.(WizardModel)
	}

	if m.activeTab != tabCredentials {
		t.Fatalf("expected activeTab %d, got %d", tabCredentials, m.activeTab)
	}

	m.settings.Password = "hunter2"

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(WizardModel)

	if m.activeTab != tabVerify {
		t.Errorf("expected activeTab %d after back, got %d", tabVerify, m.activeTab)
	}

	if m.settings.Password != "" {
		t.Error("expected password to be cleared on backward navigation")
	}
}

func TestWizardModel_BackFromVerifyUnfixesIntent(t *testing.T) {
	m := newTestWizard()

	for i := tabProvider; i < tabVerify; i++ {
		updatedModel, _ := m.Update(TabCompleteMsg{TabIndex: i})
		m = updatedModel.(WizardModel)
	}

	m.settings.Intent = repo.IntentConnect
	m.settings.IntentFixed = true

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(WizardModel)

	if m.settings.IntentFixed {
		t.Error("expected intent to be unfixed after leaving the verify step")
	}
}

func TestWizardModel_BackBlockedWhileAttemptInFlight(t *testing.T) {
	m := newTestWizard()

	for i := tabProvider; i < tabCredentials; i++ {
		updatedModel, _ := m.Update(TabCompleteMsg{TabIndex: i})
		m = updatedModel.(WizardModel)
	}

	m.credentialsTab.running = true

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updatedModel.(WizardModel)

	if m.activeTab != tabCredentials {
		t.Errorf("expected back navigation to be blocked, activeTab moved to %d", m.activeTab)
	}
}

func TestWizardModel_Quitting(t *testing.T) {
	m := newTestWizard()

	for i := tabProvider; i < tabCredentials; i++ {
		updatedModel, _ := m.Update(TabCompleteMsg{TabIndex: i})
		m = updatedModel.(WizardModel)
	}

	m.tabs[tabCredentials].State = ui.TabComplete

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := m.Update(msg)
	m = updatedModel.(WizardModel)

	if !m.quitting {
		t.Error("expected quitting to be true")
	}

	if cmd == nil {
		t.Error("expected quit command, got nil")
	}
}

func TestWizardModel_TabErrorMsg(t *testing.T) {
	m := newTestWizard()

	msg := TabErrorMsg{
		TabIndex: tabConfigure,
		Error:    tea.ErrProgramKilled,
	}

	updatedModel, _ := m.Update(msg)
	m = updatedModel.(WizardModel)

	if m.tabs[tabConfigure].State != ui.TabError {
		t.Errorf("expected configure tab to be error, got %v", m.tabs[tabConfigure].State)
	}

	if m.err == nil {
		t.Error("expected error to be stored")
	}
}

func TestWizardModel_View(t *testing.T) {
	m := newTestWizard()

	m.width = 120
	m.height = 40

	view := m.View()
	if view == "" {
		t.Error("expected non-empty view")
	}

	// Before dimensions are set, should show "Initializing..."
	m2 := newTestWizard()
	view2 := m2.View()
	if view2 != "Initializing..." {
		t.Errorf("expected 'Initializing...', got %s", view2)
	}
}

func TestWizardModel_SettingsMerge(t *testing.T) {
	old := WizardSettings{
		Target: repo.StorageTarget{
			Provider:   repo.ProviderFilesystem,
			Filesystem: &repo.FilesystemTarget{Path: "/old"},
		},
		Password: "keepme",
	}

	new := WizardSettings{
		Intent:      repo.IntentCreate,
		IntentFixed: true,
	}

	merged := mergeSettings(old, new)

	if merged.Intent != repo.IntentCreate || !merged.IntentFixed {
		t.Errorf("expected intent to be taken from new settings, got %v fixed=%v", merged.Intent, merged.IntentFixed)
	}

	if merged.Target.Provider != repo.ProviderFilesystem {
		t.Errorf("expected old target to be preserved, got %s", merged.Target.Provider)
	}

	if merged.Password != "keepme" {
		t.Errorf("expected old password to be preserved, got %q", merged.Password)
	}
}
