// SPDX-License-Identifier: Apache-2.0
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a saved record of a previously used storage target, offered
// for quick reuse by the setup wizard. Profiles never contain passwords or
// secret keys; callers must strip secrets before saving.
type Profile struct {
	Name     string            `yaml:"name"`
	Provider string            `yaml:"provider"`
	Location string            `yaml:"location"`
	Params   map[string]string `yaml:"params,omitempty"`
	LastUsed time.Time         `yaml:"lastUsed"`
}

// Profiles is the on-disk profile collection
type Profiles struct {
	Entries []Profile `yaml:"profiles"`
}

// LoadProfiles reads the profiles file. A missing file yields an empty set.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Profiles{}, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}

	var profiles Profiles
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file %s: %w", path, err)
	}
	return &profiles, nil
}

// Save writes the profiles file with restrictive permissions
func (p *Profiles) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}

// Upsert records a profile, replacing any entry with the same location and
// provider, and stamps it as most recently used
func (p *Profiles) Upsert(profile Profile) {
	profile.LastUsed = time.Now().UTC()
	for i, existing := range p.Entries {
		if existing.Provider == profile.Provider && existing.Location == profile.Location {
			p.Entries[i] = profile
			return
		}
	}
	p.Entries = append(p.Entries, profile)
}

// Recent returns profiles ordered by last use, newest first
func (p *Profiles) Recent() []Profile {
	entries := make([]Profile, len(p.Entries))
	copy(entries, p.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastUsed.After(entries[j].LastUsed)
	})
	return entries
}
