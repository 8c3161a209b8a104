// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// Configuration
	EnvPrefix        = "COFFER" // Environment variable prefix for Viper
	ConfigFileName   = "config" // Config file name for XDG config dir (without extension)
	ConfigType       = "yaml"   // Config file type
	DefaultConfigExt = ".yaml"  // Default config file extension

	// ProfilesFileName is the saved-connections file under the data dir
	ProfilesFileName = "profiles.yaml"

	// EngineSocketName is the default cofferd socket file name
	EngineSocketName = "cofferd.sock"
)

// Paths holds all XDG-compliant directory paths
type Paths struct {
	DataDir    string
	CacheDir   string
	ConfigDir  string
	RuntimeDir string
}

var (
	// GlobalPaths is the global paths instance
	GlobalPaths *Paths
)

func init() {
	GlobalPaths = GetPaths()
}

// GetPaths returns XDG-compliant directory paths
func GetPaths() *Paths {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
			os.Exit(1)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
			os.Exit(1)
		}
		cacheHome = filepath.Join(home, ".cache")
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get home directory: %v\n", err)
			os.Exit(1)
		}
		configHome = filepath.Join(home, ".config")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}

	return &Paths{
		DataDir:    filepath.Join(dataHome, "coffer"),
		CacheDir:   filepath.Join(cacheHome, "coffer"),
		ConfigDir:  filepath.Join(configHome, "coffer"),
		RuntimeDir: runtimeDir,
	}
}

// DefaultEngineSocket returns the default path of the cofferd socket
func (p *Paths) DefaultEngineSocket() string {
	return filepath.Join(p.RuntimeDir, EngineSocketName)
}

// ProfilesPath returns the saved-connections file path
func (p *Paths) ProfilesPath() string {
	return filepath.Join(p.DataDir, ProfilesFileName)
}

// InitDirs creates all necessary directories
func InitDirs() error {
	dirs := []string{
		GlobalPaths.ConfigDir,
		GlobalPaths.DataDir,
		GlobalPaths.CacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
