// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// ProviderTab selects the storage backend, offering recently used profiles
// first when any exist
type ProviderTab struct {
	width, height int
	form          *huh.Form
	formComplete  bool
	profiles      []config.Profile

	selection string
}

// NewProviderTab creates the provider selection tab
func NewProviderTab(profiles []config.Profile) *ProviderTab {
	return &ProviderTab{profiles: profiles}
}

// Init implements TabModel interface
func (t *ProviderTab) Init() tea.Cmd {
	var options []huh.Option[string]

	// Recent profiles first so a returning user can reconnect in two
	// keystrokes. Profiles never carry secrets; those are re-entered later.
	for i, p := range t.profiles {
		label := fmt.Sprintf("%s  (%s)", p.Location, repo.Provider(p.Provider).DisplayName())
		options = append(options, huh.NewOption("Recent: "+label, "profile:"+strconv.Itoa(i)))
	}
	for _, p := range repo.Providers() {
		options = append(options, huh.NewOption(p.DisplayName(), "provider:"+string(p)))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage Backend").
				Description("Where the backup repository lives").
				Options(options...).
				Value(&t.selection),
		),
	)

	return t.form.Init()
}

// Update implements TabModel interface
func (t *ProviderTab) Update(msg tea.Msg) (*ProviderTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		if t.form != nil {
			t.form.WithWidth(msg.Width)
		}
	}

	var cmd tea.Cmd
	if t.form != nil {
		form, formCmd := t.form.Update(msg)
		t.form = form.(*huh.Form)
		cmd = formCmd
	}

	if t.form != nil && t.form.State == huh.StateCompleted && !t.formComplete {
		t.formComplete = true

		settings := WizardSettings{Target: t.chosenTarget()}
		log.Debugf("provider.Update: selected %s", settings.Target.Provider)

		return t, tea.Batch(
			func() tea.Msg { return SettingsUpdateMsg{Settings: settings} },
			func() tea.Msg { return TabCompleteMsg{TabIndex: 0} },
			cmd,
		)
	}

	return t, cmd
}

// chosenTarget builds the (partial) storage target from the selection. A
// profile selection prefills the non-secret fields; a bare provider
// selection yields an empty variant for the configure step to fill.
func (t *ProviderTab) chosenTarget() repo.StorageTarget {
	if len(t.selection) > len("profile:") && t.selection[:len("profile:")] == "profile:" {
		if idx, err := strconv.Atoi(t.selection[len("profile:"):]); err == nil && idx < len(t.profiles) {
			return targetFromProfile(t.profiles[idx])
		}
	}
	provider := repo.Provider(t.selection[len("provider:"):])
	return emptyTarget(provider)
}

// View implements TabModel interface
func (t *ProviderTab) View() string {
	if t.form == nil {
		return ""
	}
	return t.form.View()
}

// IsComplete implements TabModel interface
func (t *ProviderTab) IsComplete() bool {
	return t.formComplete
}

// GetState implements TabModel interface
func (t *ProviderTab) GetState() ui.TabState {
	if t.formComplete {
		return ui.TabComplete
	}
	return ui.TabActive
}

// emptyTarget returns a target with the matching variant allocated but unset
func emptyTarget(provider repo.Provider) repo.StorageTarget {
	target := repo.StorageTarget{Provider: provider}
	switch provider {
	case repo.ProviderFilesystem:
		target.Filesystem = &repo.FilesystemTarget{}
	case repo.ProviderS3:
		target.S3 = &repo.S3Target{}
	case repo.ProviderB2:
		target.B2 = &repo.B2Target{}
	case repo.ProviderSFTP:
		target.SFTP = &repo.SFTPTarget{Port: 22}
	case repo.ProviderWebDAV:
		target.WebDAV = &repo.WebDAVTarget{}
	case repo.ProviderRclone:
		target.Rclone = &repo.RcloneTarget{}
	}
	return target
}

// targetFromProfile rebuilds the non-secret parts of a storage target from a
// saved profile. Secret fields stay empty and are collected again by the
// configure step.
func targetFromProfile(p config.Profile) repo.StorageTarget {
	target := emptyTarget(repo.Provider(p.Provider))
	params := p.Params

	switch target.Provider {
	case repo.ProviderFilesystem:
		target.Filesystem.Path = params["path"]
	case repo.ProviderS3:
		target.S3.Endpoint = params["endpoint"]
		target.S3.Bucket = params["bucket"]
		target.S3.Prefix = params["prefix"]
	case repo.ProviderB2:
		target.B2.Bucket = params["bucket"]
		target.B2.KeyID = params["keyID"]
		target.B2.Prefix = params["prefix"]
	case repo.ProviderSFTP:
		target.SFTP.Host = params["host"]
		if port, err := strconv.Atoi(params["port"]); err == nil && port > 0 {
			target.SFTP.Port = port
		}
		target.SFTP.Path = params["path"]
		target.SFTP.Username = params["username"]
		target.SFTP.KeyFile = params["keyFile"]
	case repo.ProviderWebDAV:
		target.WebDAV.URL = params["url"]
		target.WebDAV.Username = params["username"]
	case repo.ProviderRclone:
		target.Rclone.RemotePath = params["remotePath"]
	}
	return target
}
