// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"github.com/coffer-backup/coffer/pkg/engine"
	"github.com/coffer-backup/coffer/pkg/repo"
)

// WizardSettings accumulates the choices made across wizard steps. The
// password lives only in memory for the duration of the wizard.
type WizardSettings struct {
	Target      repo.StorageTarget
	Intent      repo.ConnectionIntent
	IntentFixed bool
	Password    string
	Description string
	Algorithms  engine.Algorithms
}

// TabCompleteMsg signals a tab has completed
type TabCompleteMsg struct {
	TabIndex int
}

// SettingsUpdateMsg carries settings from a tab to parent
type SettingsUpdateMsg struct {
	Settings WizardSettings
}

// TabErrorMsg carries error from a tab to parent
type TabErrorMsg struct {
	TabIndex int
	Error    error
}

// AttemptFinishedMsg signals the connection attempt has reached a terminal
// outcome
type AttemptFinishedMsg struct {
	Outcome repo.AttemptOutcome
	Error   error
}
