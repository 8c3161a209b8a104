// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigValue is a resolved configuration value with its source
type ConfigValue struct {
	Key    string
	Value  interface{}
	Source string
}

// UserConfigPath returns the user config file path
func UserConfigPath() string {
	return filepath.Join(GlobalPaths.ConfigDir, ConfigFileName+DefaultConfigExt)
}

// envName returns the environment variable that overrides a key
func envName(key string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_")
	return EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))
}

// loadUserConfig reads the user config file into a fresh viper instance,
// untouched by env vars and defaults. A missing file yields an empty
// instance.
func loadUserConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(UserConfigPath())
	v.SetConfigType(ConfigType)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// GetConfigValue resolves a key through the global viper and reports where
// the value came from
func GetConfigValue(key string) (ConfigValue, error) {
	if GetKeyDefinition(key) == nil {
		return ConfigValue{}, fmt.Errorf("unknown config key %q (see 'coffer config list')", key)
	}

	value := viper.Get(key)

	source := "default"
	if os.Getenv(envName(key)) != "" {
		source = "from ENV: " + envName(key)
	} else {
		userCfg, err := loadUserConfig()
		if err == nil && userCfg.IsSet(key) {
			source = "from " + UserConfigPath()
		}
	}

	return ConfigValue{Key: key, Value: value, Source: source}, nil
}

// SetConfigValue validates and writes a key to the user config file
func SetConfigValue(key, raw string) error {
	parsed, err := ValidateValue(key, raw)
	if err != nil {
		return err
	}

	userCfg, err := loadUserConfig()
	if err != nil {
		return err
	}
	userCfg.Set(key, parsed)

	if err := os.MkdirAll(GlobalPaths.ConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := userCfg.WriteConfigAs(UserConfigPath()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Keep the running process consistent with what was just written
	viper.Set(key, parsed)
	return nil
}

// UnsetConfigValue removes a key from the user config file. Viper has no
// delete, so the file is rewritten from its settings map.
func UnsetConfigValue(key string) error {
	if GetKeyDefinition(key) == nil {
		return fmt.Errorf("unknown config key %q (see 'coffer config list')", key)
	}

	userCfg, err := loadUserConfig()
	if err != nil {
		return err
	}
	if !userCfg.IsSet(key) {
		return fmt.Errorf("key %q is not set in %s", key, UserConfigPath())
	}

	settings := userCfg.AllSettings()
	deleteNested(settings, strings.Split(key, "."))

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(UserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// deleteNested removes a dotted key path from a settings map, pruning
// emptied parent maps
func deleteNested(settings map[string]interface{}, path []string) {
	if len(path) == 1 {
		delete(settings, path[0])
		return
	}
	child, ok := settings[path[0]].(map[string]interface{})
	if !ok {
		return
	}
	deleteNested(child, path[1:])
	if len(child) == 0 {
		delete(settings, path[0])
	}
}
