// SPDX-License-Identifier: Apache-2.0

// Package repo implements the repository connection core: storage targets,
// the connection orchestrator, the bounded-retry connection verifier, and
// the failure classifier. All real repository work happens in cofferd; this
// package only sequences it.
package repo

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/coffer-backup/coffer/pkg/engine"
)

// Provider identifies a storage backend kind
type Provider string

const (
	ProviderFilesystem Provider = "filesystem"
	ProviderS3         Provider = "s3"
	ProviderB2         Provider = "b2"
	ProviderSFTP       Provider = "sftp"
	ProviderWebDAV     Provider = "webdav"
	ProviderRclone     Provider = "rclone"
)

// Providers lists all supported storage backends in display order
func Providers() []Provider {
	return []Provider{
		ProviderFilesystem,
		ProviderS3,
		ProviderB2,
		ProviderSFTP,
		ProviderWebDAV,
		ProviderRclone,
	}
}

// DisplayName returns the human-readable provider name
func (p Provider) DisplayName() string {
	switch p {
	case ProviderFilesystem:
		return "Local Filesystem"
	case ProviderS3:
		return "S3-Compatible Object Store"
	case ProviderB2:
		return "Backblaze B2"
	case ProviderSFTP:
		return "SFTP"
	case ProviderWebDAV:
		return "WebDAV"
	case ProviderRclone:
		return "Rclone Remote"
	default:
		return string(p)
	}
}

// FilesystemTarget addresses a repository on a local path
type FilesystemTarget struct {
	Path string `validate:"required"`
}

// S3Target addresses a repository in an S3-compatible bucket
type S3Target struct {
	Endpoint  string `validate:"required"`
	Bucket    string `validate:"required"`
	AccessKey string `validate:"required"`
	SecretKey string `validate:"required"`
	Prefix    string // optional
}

// B2Target addresses a repository in a Backblaze B2 bucket
type B2Target struct {
	Bucket string `validate:"required"`
	KeyID  string `validate:"required"`
	Key    string `validate:"required"`
	Prefix string // optional
}

// SFTPTarget addresses a repository behind an SFTP server
type SFTPTarget struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	Path     string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required_without=KeyFile"`
	KeyFile  string `validate:"required_without=Password"`
}

// WebDAVTarget addresses a repository behind a WebDAV server
type WebDAVTarget struct {
	URL      string `validate:"required,url"`
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// RcloneTarget addresses a repository through an rclone remote
type RcloneTarget struct {
	RemotePath string `validate:"required"`
}

// StorageTarget is a discriminated union over storage backends. Exactly the
// variant matching Provider must be set; Validate enforces this plus the
// per-provider required fields.
type StorageTarget struct {
	Provider   Provider
	Filesystem *FilesystemTarget
	S3         *S3Target
	B2         *B2Target
	SFTP       *SFTPTarget
	WebDAV     *WebDAVTarget
	Rclone     *RcloneTarget
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that exactly the active variant is populated and that all
// of its required fields are non-empty. A target that fails validation is
// not submittable.
func (t StorageTarget) Validate() error {
	active, err := t.activeVariant()
	if err != nil {
		return err
	}
	count := 0
	for _, set := range []bool{
		t.Filesystem != nil,
		t.S3 != nil,
		t.B2 != nil,
		t.SFTP != nil,
		t.WebDAV != nil,
		t.Rclone != nil,
	} {
		if set {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("storage target must have exactly one variant set, got %d", count)
	}
	if err := validate.Struct(active); err != nil {
		return fmt.Errorf("invalid %s target: %w", t.Provider, err)
	}
	return nil
}

// activeVariant returns the variant matching Provider
func (t StorageTarget) activeVariant() (interface{}, error) {
	switch t.Provider {
	case ProviderFilesystem:
		if t.Filesystem == nil {
			return nil, fmt.Errorf("provider is %s but filesystem variant is nil", t.Provider)
		}
		return t.Filesystem, nil
	case ProviderS3:
		if t.S3 == nil {
			return nil, fmt.Errorf("provider is %s but s3 variant is nil", t.Provider)
		}
		return t.S3, nil
	case ProviderB2:
		if t.B2 == nil {
			return nil, fmt.Errorf("provider is %s but b2 variant is nil", t.Provider)
		}
		return t.B2, nil
	case ProviderSFTP:
		if t.SFTP == nil {
			return nil, fmt.Errorf("provider is %s but sftp variant is nil", t.Provider)
		}
		return t.SFTP, nil
	case ProviderWebDAV:
		if t.WebDAV == nil {
			return nil, fmt.Errorf("provider is %s but webdav variant is nil", t.Provider)
		}
		return t.WebDAV, nil
	case ProviderRclone:
		if t.Rclone == nil {
			return nil, fmt.Errorf("provider is %s but rclone variant is nil", t.Provider)
		}
		return t.Rclone, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", t.Provider)
	}
}

// Wire converts the target to its engine wire form. Secrets travel in the
// params map; they go to cofferd only and are never persisted by the
// front-end.
func (t StorageTarget) Wire() engine.StorageConfig {
	params := map[string]string{}
	switch t.Provider {
	case ProviderFilesystem:
		if t.Filesystem != nil {
			params["path"] = t.Filesystem.Path
		}
	case ProviderS3:
		if t.S3 != nil {
			params["endpoint"] = t.S3.Endpoint
			params["bucket"] = t.S3.Bucket
			params["accessKey"] = t.S3.AccessKey
			params["secretKey"] = t.S3.SecretKey
			if t.S3.Prefix != "" {
				params["prefix"] = t.S3.Prefix
			}
		}
	case ProviderB2:
		if t.B2 != nil {
			params["bucket"] = t.B2.Bucket
			params["keyID"] = t.B2.KeyID
			params["key"] = t.B2.Key
			if t.B2.Prefix != "" {
				params["prefix"] = t.B2.Prefix
			}
		}
	case ProviderSFTP:
		if t.SFTP != nil {
			params["host"] = t.SFTP.Host
			params["port"] = strconv.Itoa(t.SFTP.Port)
			params["path"] = t.SFTP.Path
			params["username"] = t.SFTP.Username
			if t.SFTP.Password != "" {
				params["password"] = t.SFTP.Password
			}
			if t.SFTP.KeyFile != "" {
				params["keyFile"] = t.SFTP.KeyFile
			}
		}
	case ProviderWebDAV:
		if t.WebDAV != nil {
			params["url"] = t.WebDAV.URL
			params["username"] = t.WebDAV.Username
			params["password"] = t.WebDAV.Password
		}
	case ProviderRclone:
		if t.Rclone != nil {
			params["remotePath"] = t.Rclone.RemotePath
		}
	}
	return engine.StorageConfig{Kind: string(t.Provider), Params: params}
}

// ProfileParams returns the non-secret subset of the wire params, suitable
// for persisting in a reuse profile. Passwords and secret keys are omitted.
func (t StorageTarget) ProfileParams() map[string]string {
	params := t.Wire().Params
	for _, secret := range []string{"secretKey", "accessKey", "key", "password"} {
		delete(params, secret)
	}
	return params
}

// Describe returns a short human-readable location string for display and
// for profile records. Secrets are never included.
func (t StorageTarget) Describe() string {
	switch t.Provider {
	case ProviderFilesystem:
		if t.Filesystem != nil {
			return t.Filesystem.Path
		}
	case ProviderS3:
		if t.S3 != nil {
			return fmt.Sprintf("s3://%s/%s", t.S3.Bucket, t.S3.Prefix)
		}
	case ProviderB2:
		if t.B2 != nil {
			return fmt.Sprintf("b2://%s/%s", t.B2.Bucket, t.B2.Prefix)
		}
	case ProviderSFTP:
		if t.SFTP != nil {
			return fmt.Sprintf("sftp://%s@%s:%d%s", t.SFTP.Username, t.SFTP.Host, t.SFTP.Port, t.SFTP.Path)
		}
	case ProviderWebDAV:
		if t.WebDAV != nil {
			return t.WebDAV.URL
		}
	case ProviderRclone:
		if t.Rclone != nil {
			return "rclone:" + t.Rclone.RemotePath
		}
	}
	return string(t.Provider)
}
