// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"sort"
	"strconv"
)

// KeyType describes the value type of a config key
type KeyType string

const (
	TypeString KeyType = "string"
	TypeBool   KeyType = "bool"
	TypeInt    KeyType = "int"
)

// KeyDefinition describes a known configuration key for `coffer config`
type KeyDefinition struct {
	Key         string
	Type        KeyType
	Description string
	// AllowedValues restricts the value set when non-empty
	AllowedValues []string
}

// knownKeys is the registry behind config get/set/list
var knownKeys = []KeyDefinition{
	{Key: "use-tui", Type: TypeBool, Description: "Enable the terminal UI for interactive commands"},
	{Key: "log-level", Type: TypeString, Description: "Log verbosity", AllowedValues: []string{"disabled", "debug", "info", "warn", "error"}},
	{Key: "engine.socket", Type: TypeString, Description: "Path of the cofferd unix socket"},
	{Key: "verify.attempts", Type: TypeInt, Description: "Maximum connection-verification polling attempts"},
	{Key: "verify.initial-delay-ms", Type: TypeInt, Description: "Wait in milliseconds after the first verification attempt"},
	{Key: "verify.steady-delay-ms", Type: TypeInt, Description: "Wait in milliseconds after each later verification attempt"},
	{Key: "create.hash", Type: TypeString, Description: "Default hash algorithm for new repositories"},
	{Key: "create.encryption", Type: TypeString, Description: "Default encryption algorithm for new repositories"},
	{Key: "create.splitter", Type: TypeString, Description: "Default object splitter for new repositories"},
}

// GetKeyDefinition returns the definition for a key, or nil if unknown
func GetKeyDefinition(key string) *KeyDefinition {
	for i := range knownKeys {
		if knownKeys[i].Key == key {
			return &knownKeys[i]
		}
	}
	return nil
}

// KnownKeys returns all key definitions sorted by key
func KnownKeys() []KeyDefinition {
	keys := make([]KeyDefinition, len(knownKeys))
	copy(keys, knownKeys)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })
	return keys
}

// ValidateValue checks a raw string value against the key's definition and
// returns the parsed value
func ValidateValue(key, raw string) (interface{}, error) {
	def := GetKeyDefinition(key)
	if def == nil {
		return nil, fmt.Errorf("unknown config key %q (see 'coffer config list')", key)
	}

	switch def.Type {
	case TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q expects a boolean, got %q", key, raw)
		}
		return v, nil
	case TypeInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q expects an integer, got %q", key, raw)
		}
		if v <= 0 {
			return nil, fmt.Errorf("key %q expects a positive integer, got %d", key, v)
		}
		return v, nil
	default:
		if len(def.AllowedValues) > 0 {
			for _, allowed := range def.AllowedValues {
				if raw == allowed {
					return raw, nil
				}
			}
			return nil, fmt.Errorf("key %q expects one of %v, got %q", key, def.AllowedValues, raw)
		}
		return raw, nil
	}
}
