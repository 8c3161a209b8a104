// SPDX-License-Identifier: Apache-2.0
package setup

import (
	"errors"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// ConfigureTab collects the per-provider storage location fields using
// huh.Form. Fields are prefilled when the provider step selected a profile.
type ConfigureTab struct {
	width, height int
	form          *huh.Form
	formComplete  bool
	settings      *WizardSettings

	// Collected values, bound to form fields
	path       string
	endpoint   string
	bucket     string
	accessKey  string
	secretKey  string
	prefix     string
	keyID      string
	key        string
	host       string
	port       string
	username   string
	password   string
	keyFile    string
	url        string
	remotePath string
}

// NewConfigureTab creates the storage configuration tab
func NewConfigureTab(settings *WizardSettings) *ConfigureTab {
	return &ConfigureTab{settings: settings}
}

// Init implements TabModel interface
func (t *ConfigureTab) Init() tea.Cmd {
	t.prefill()
	t.form = t.buildForm()
	return t.form.Init()
}

// prefill copies the non-secret values already present on the target into
// the form-bound fields
func (t *ConfigureTab) prefill() {
	target := t.settings.Target
	switch target.Provider {
	case repo.ProviderFilesystem:
		if target.Filesystem != nil {
			t.path = target.Filesystem.Path
		}
	case repo.ProviderS3:
		if target.S3 != nil {
			t.endpoint = target.S3.Endpoint
			t.bucket = target.S3.Bucket
			t.prefix = target.S3.Prefix
		}
	case repo.ProviderB2:
		if target.B2 != nil {
			t.bucket = target.B2.Bucket
			t.keyID = target.B2.KeyID
			t.prefix = target.B2.Prefix
		}
	case repo.ProviderSFTP:
		if target.SFTP != nil {
			t.host = target.SFTP.Host
			t.port = strconv.Itoa(target.SFTP.Port)
			t.path = target.SFTP.Path
			t.username = target.SFTP.Username
			t.keyFile = target.SFTP.KeyFile
		}
	case repo.ProviderWebDAV:
		if target.WebDAV != nil {
			t.url = target.WebDAV.URL
			t.username = target.WebDAV.Username
		}
	case repo.ProviderRclone:
		if target.Rclone != nil {
			t.remotePath = target.Rclone.RemotePath
		}
	}
	if t.port == "" || t.port == "0" {
		t.port = "22"
	}
}

func required(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}

// buildForm creates the provider-specific field group
func (t *ConfigureTab) buildForm() *huh.Form {
	var fields []huh.Field

	switch t.settings.Target.Provider {
	case repo.ProviderFilesystem:
		fields = []huh.Field{
			huh.NewInput().
				Title("Repository Path").
				Description("Local directory that holds the repository").
				Value(&t.path).
				Validate(required("path")),
		}

	case repo.ProviderS3:
		fields = []huh.Field{
			huh.NewInput().
				Title("Endpoint").
				Placeholder("s3.us-east-1.amazonaws.com").
				Value(&t.endpoint).
				Validate(required("endpoint")),
			huh.NewInput().
				Title("Bucket").
				Value(&t.bucket).
				Validate(required("bucket")),
			huh.NewInput().
				Title("Access Key").
				Value(&t.accessKey).
				Validate(required("access key")),
			huh.NewInput().
				Title("Secret Key").
				EchoMode(huh.EchoModePassword).
				Value(&t.secretKey).
				Validate(required("secret key")),
			huh.NewInput().
				Title("Prefix").
				Description("Optional object key prefix").
				Value(&t.prefix),
		}

	case repo.ProviderB2:
		fields = []huh.Field{
			huh.NewInput().
				Title("Bucket").
				Value(&t.bucket).
				Validate(required("bucket")),
			huh.NewInput().
				Title("Key ID").
				Value(&t.keyID).
				Validate(required("key ID")),
			huh.NewInput().
				Title("Application Key").
				EchoMode(huh.EchoModePassword).
				Value(&t.key).
				Validate(required("application key")),
			huh.NewInput().
				Title("Prefix").
				Description("Optional object key prefix").
				Value(&t.prefix),
		}

	case repo.ProviderSFTP:
		fields = []huh.Field{
			huh.NewInput().
				Title("Host").
				Value(&t.host).
				Validate(required("host")),
			huh.NewInput().
				Title("Port").
				Value(&t.port).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 1 || n > 65535 {
						return errors.New("port must be between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("Remote Path").
				Value(&t.path).
				Validate(required("path")),
			huh.NewInput().
				Title("Username").
				Value(&t.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				Description("Leave empty when using a key file").
				EchoMode(huh.EchoModePassword).
				Value(&t.password),
			huh.NewInput().
				Title("Key File").
				Description("Path to a private key file").
				Value(&t.keyFile).
				Validate(func(s string) error {
					if s == "" && t.password == "" {
						return errors.New("either a password or a key file is required")
					}
					return nil
				}),
		}

	case repo.ProviderWebDAV:
		fields = []huh.Field{
			huh.NewInput().
				Title("URL").
				Placeholder("https://dav.example.com/backups").
				Value(&t.url).
				Validate(required("URL")),
			huh.NewInput().
				Title("Username").
				Value(&t.username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&t.password).
				Validate(required("password")),
		}

	default: // rclone
		fields = []huh.Field{
			huh.NewInput().
				Title("Remote Path").
				Placeholder("remote:bucket/path").
				Value(&t.remotePath).
				Validate(required("remote path")),
		}
	}

	return huh.NewForm(huh.NewGroup(fields...))
}

// buildTarget assembles the storage target from the collected fields
func (t *ConfigureTab) buildTarget() repo.StorageTarget {
	provider := t.settings.Target.Provider
	target := repo.StorageTarget{Provider: provider}

	switch provider {
	case repo.ProviderFilesystem:
		target.Filesystem = &repo.FilesystemTarget{Path: t.path}
	case repo.ProviderS3:
		target.S3 = &repo.S3Target{
			Endpoint:  t.endpoint,
			Bucket:    t.bucket,
			AccessKey: t.accessKey,
			SecretKey: t.secretKey,
			Prefix:    t.prefix,
		}
	case repo.ProviderB2:
		target.B2 = &repo.B2Target{
			Bucket: t.bucket,
			KeyID:  t.keyID,
			Key:    t.key,
			Prefix: t.prefix,
		}
	case repo.ProviderSFTP:
		port, _ := strconv.Atoi(t.port)
		target.SFTP = &repo.SFTPTarget{
			Host:     t.host,
			Port:     port,
			Path:     t.path,
			Username: t.username,
			Password: t.password,
			KeyFile:  t.keyFile,
		}
	case repo.ProviderWebDAV:
		target.WebDAV = &repo.WebDAVTarget{
			URL:      t.url,
			Username: t.username,
			Password: t.password,
		}
	case repo.ProviderRclone:
		target.Rclone = &repo.RcloneTarget{RemotePath: t.remotePath}
	}
	return target
}

// Update implements TabModel interface
func (t *ConfigureTab) Update(msg tea.Msg) (*ConfigureTab, tea.Cmd) {
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
		target := t.buildTarget()
		if err := target.Validate(); err != nil {
			// Field validators should have caught this; surface it instead
			// of submitting an unsubmittable target
			log.Warnf("configure.Update: built target failed validation: %v", err)
			return t, func() tea.Msg { return TabErrorMsg{TabIndex: 1, Error: err} }
		}
		t.formComplete = true
		log.Debugf("configure.Update: target %s", target.Describe())

		return t, tea.Batch(
			func() tea.Msg { return SettingsUpdateMsg{Settings: WizardSettings{Target: target}} },
			func() tea.Msg { return TabCompleteMsg{TabIndex: 1} },
			cmd,
		)
	}

	return t, cmd
}

// View implements TabModel interface
func (t *ConfigureTab) View() string {
	if t.form == nil {
		return ""
	}
	return t.form.View()
}

// IsComplete implements TabModel interface
func (t *ConfigureTab) IsComplete() bool {
	return t.formComplete
}

// GetState implements TabModel interface
func (t *ConfigureTab) GetState() ui.TabState {
	if t.formComplete {
		return ui.TabComplete
	}
	return ui.TabActive
}
