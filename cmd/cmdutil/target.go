// SPDX-License-Identifier: Apache-2.0
package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffer-backup/coffer/pkg/repo"
)

// TargetFlags holds the storage target flag values shared by the setup,
// connect, and create commands
type TargetFlags struct {
	Provider string

	Path string

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string

	B2Bucket string
	B2KeyID  string
	B2Key    string
	B2Prefix string

	SFTPHost     string
	SFTPPort     int
	SFTPPath     string
	SFTPUser     string
	SFTPPassword string
	SFTPKeyFile  string

	WebDAVURL      string
	WebDAVUser     string
	WebDAVPassword string

	RcloneRemote string
}

// AddTargetFlags registers the storage target flags on a command
func AddTargetFlags(cmd *cobra.Command, f *TargetFlags) {
	flags := cmd.Flags()

	flags.StringVar(&f.Provider, "provider", "", "Storage backend (filesystem, s3, b2, sftp, webdav, rclone)")

	flags.StringVar(&f.Path, "path", "", "Repository path (filesystem) or remote path (sftp)")

	flags.StringVar(&f.S3Endpoint, "s3-endpoint", "", "S3 endpoint host")
	flags.StringVar(&f.S3Bucket, "s3-bucket", "", "S3 bucket name")
	flags.StringVar(&f.S3AccessKey, "s3-access-key", "", "S3 access key")
	flags.StringVar(&f.S3SecretKey, "s3-secret-key", "", "S3 secret key")
	flags.StringVar(&f.S3Prefix, "s3-prefix", "", "S3 object key prefix")

	flags.StringVar(&f.B2Bucket, "b2-bucket", "", "B2 bucket name")
	flags.StringVar(&f.B2KeyID, "b2-key-id", "", "B2 application key ID")
	flags.StringVar(&f.B2Key, "b2-key", "", "B2 application key")
	flags.StringVar(&f.B2Prefix, "b2-prefix", "", "B2 object key prefix")

	flags.StringVar(&f.SFTPHost, "sftp-host", "", "SFTP server host")
	flags.IntVar(&f.SFTPPort, "sftp-port", 22, "SFTP server port")
	flags.StringVar(&f.SFTPUser, "sftp-user", "", "SFTP username")
	flags.StringVar(&f.SFTPPassword, "sftp-password", "", "SFTP password")
	flags.StringVar(&f.SFTPKeyFile, "sftp-key-file", "", "SFTP private key file")

	flags.StringVar(&f.WebDAVURL, "webdav-url", "", "WebDAV server URL")
	flags.StringVar(&f.WebDAVUser, "webdav-user", "", "WebDAV username")
	flags.StringVar(&f.WebDAVPassword, "webdav-password", "", "WebDAV password")

	flags.StringVar(&f.RcloneRemote, "rclone-remote", "", "Rclone remote path (remote:bucket/path)")
}

// Target assembles and validates a storage target from the flag values
func (f *TargetFlags) Target() (repo.StorageTarget, error) {
	if f.Provider == "" {
		return repo.StorageTarget{}, fmt.Errorf("--provider is required in non-interactive mode")
	}

	target := repo.StorageTarget{Provider: repo.Provider(f.Provider)}
	switch target.Provider {
	case repo.ProviderFilesystem:
		target.Filesystem = &repo.FilesystemTarget{Path: f.Path}
	case repo.ProviderS3:
		target.S3 = &repo.S3Target{
			Endpoint:  f.S3Endpoint,
			Bucket:    f.S3Bucket,
			AccessKey: f.S3AccessKey,
			SecretKey: f.S3SecretKey,
			Prefix:    f.S3Prefix,
		}
	case repo.ProviderB2:
		target.B2 = &repo.B2Target{
			Bucket: f.B2Bucket,
			KeyID:  f.B2KeyID,
			Key:    f.B2Key,
			Prefix: f.B2Prefix,
		}
	case repo.ProviderSFTP:
		target.SFTP = &repo.SFTPTarget{
			Host:     f.SFTPHost,
			Port:     f.SFTPPort,
			Path:     f.Path,
			Username: f.SFTPUser,
			Password: f.SFTPPassword,
			KeyFile:  f.SFTPKeyFile,
		}
	case repo.ProviderWebDAV:
		target.WebDAV = &repo.WebDAVTarget{
			URL:      f.WebDAVURL,
			Username: f.WebDAVUser,
			Password: f.WebDAVPassword,
		}
	case repo.ProviderRclone:
		target.Rclone = &repo.RcloneTarget{RemotePath: f.RcloneRemote}
	default:
		return repo.StorageTarget{}, fmt.Errorf("unknown provider %q", f.Provider)
	}

	if err := target.Validate(); err != nil {
		return repo.StorageTarget{}, err
	}
	return target, nil
}
