// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// InitViper initializes Viper configuration with defaults and search paths
// Precedence order: ENV > config file > defaults
func InitViper() {
	viper.SetConfigType(ConfigType)

	// Defaults (lowest precedence)
	viper.SetDefault("use-tui", true)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("engine.socket", GlobalPaths.DefaultEngineSocket())

	// Verification schedule. The defaults are the compatibility-critical
	// 15-attempt / 500-then-1000 ms schedule; overriding them trades
	// predictable latency for slow-backend tolerance.
	viper.SetDefault("verify.attempts", 15)
	viper.SetDefault("verify.initial-delay-ms", 500)
	viper.SetDefault("verify.steady-delay-ms", 1000)

	// Block format defaults offered when creating a repository
	viper.SetDefault("create.hash", "BLAKE3-256")
	viper.SetDefault("create.encryption", "AES256-GCM")
	viper.SetDefault("create.splitter", "DYNAMIC-4M")

	// Environment variable support (highest precedence)
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// LoadConfig reads the user config file from the XDG config directory.
// A missing config file is not an error.
func LoadConfig() error {
	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(GlobalPaths.ConfigDir)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// GetUseTUI returns the use-tui configuration value
func GetUseTUI() bool {
	return viper.GetBool("use-tui")
}

// GetLogLevel returns the log-level configuration value
func GetLogLevel() string {
	return viper.GetString("log-level")
}

// GetEngineSocket returns the engine.socket configuration value
func GetEngineSocket() string {
	return viper.GetString("engine.socket")
}

// GetVerifyAttempts returns the verify.attempts configuration value
func GetVerifyAttempts() int {
	return viper.GetInt("verify.attempts")
}

// GetVerifyInitialDelayMs returns the verify.initial-delay-ms configuration value
func GetVerifyInitialDelayMs() int {
	return viper.GetInt("verify.initial-delay-ms")
}

// GetVerifySteadyDelayMs returns the verify.steady-delay-ms configuration value
func GetVerifySteadyDelayMs() int {
	return viper.GetInt("verify.steady-delay-ms")
}

// GetCreateHash returns the create.hash configuration value
func GetCreateHash() string {
	return viper.GetString("create.hash")
}

// GetCreateEncryption returns the create.encryption configuration value
func GetCreateEncryption() string {
	return viper.GetString("create.encryption")
}

// GetCreateSplitter returns the create.splitter configuration value
func GetCreateSplitter() string {
	return viper.GetString("create.splitter")
}

// BindFlags binds all relevant cobra flags to Viper
func BindFlags(flags *pflag.FlagSet) error {
	flagsToBind := []string{
		"use-tui",
		"log-level",
	}

	for _, flagName := range flagsToBind {
		if err := viper.BindPFlag(flagName, flags.Lookup(flagName)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}
	return nil
}
