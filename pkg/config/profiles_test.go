// SPDX-License-Identifier: Apache-2.0
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadProfiles_MissingFile(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "profiles.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if len(profiles.Entries) != 0 {
		t.Errorf("expected empty profile set, got %d entries", len(profiles.Entries))
	}
}

func TestProfiles_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")

	profiles := &Profiles{}
	profiles.Upsert(Profile{
		Name:     "home-nas",
		Provider: "sftp",
		Location: "sftp://coffer@nas.local:22/srv/repo",
		Params:   map[string]string{"host": "nas.local", "port": "22"},
	})
	if err := profiles.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Profiles hold connection details; keep them private
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected mode 0600, got %o", perm)
	}

	loaded, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(loaded.Entries))
	}
	if loaded.Entries[0].Name != "home-nas" {
		t.Errorf("expected name home-nas, got %s", loaded.Entries[0].Name)
	}
	if loaded.Entries[0].Params["host"] != "nas.local" {
		t.Errorf("params did not survive the round trip")
	}
}

func TestProfiles_UpsertReplacesSameLocation(t *testing.T) {
	profiles := &Profiles{}
	profiles.Upsert(Profile{Name: "a", Provider: "filesystem", Location: "/backups/repo"})
	profiles.Upsert(Profile{Name: "b", Provider: "filesystem", Location: "/backups/repo"})

	if len(profiles.Entries) != 1 {
		t.Fatalf("expected upsert to replace, got %d entries", len(profiles.Entries))
	}
	if profiles.Entries[0].Name != "b" {
		t.Errorf("expected the newer entry to win, got %s", profiles.Entries[0].Name)
	}
}

func TestProfiles_RecentOrdering(t *testing.T) {
	profiles := &Profiles{Entries: []Profile{
		{Name: "old", Provider: "s3", Location: "s3://backups/a", LastUsed: time.Now().Add(-48 * time.Hour)},
		{Name: "new", Provider: "filesystem", Location: "/backups/repo", LastUsed: time.Now()},
		{Name: "middle", Provider: "b2", Location: "b2://backups/b", LastUsed: time.Now().Add(-1 * time.Hour)},
	}}

	recent := profiles.Recent()
	want := []string{"new", "middle", "old"}
	for i, name := range want {
		if recent[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, recent[i].Name)
		}
	}
}

func TestValidateValue(t *testing.T) {
	if _, err := ValidateValue("nonsense.key", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}
	if _, err := ValidateValue("verify.attempts", "abc"); err == nil {
		t.Error("non-integer should be rejected for an int key")
	}
	if _, err := ValidateValue("verify.attempts", "-3"); err == nil {
		t.Error("non-positive should be rejected for an int key")
	}
	if v, err := ValidateValue("verify.attempts", "15"); err != nil || v != 15 {
		t.Errorf("expected 15, got %v (%v)", v, err)
	}
	if _, err := ValidateValue("log-level", "verbose"); err == nil {
		t.Error("value outside allowed set should be rejected")
	}
	if v, err := ValidateValue("use-tui", "false"); err != nil || v != false {
		t.Errorf("expected false, got %v (%v)", v, err)
	}
}
