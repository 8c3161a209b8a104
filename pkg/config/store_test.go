// SPDX-License-Identifier: Apache-2.0
package config

import (
	"testing"
)

func TestDeleteNested_TopLevelKey(t *testing.T) {
	settings := map[string]interface{}{
		"use-tui":   false,
		"log-level": "debug",
	}

	deleteNested(settings, []string{"use-tui"})

	if _, ok := settings["use-tui"]; ok {
		t.Error("expected use-tui to be removed")
	}
	if _, ok := settings["log-level"]; !ok {
		t.Error("expected log-level to be untouched")
	}
}

func TestDeleteNested_PrunesEmptyParents(t *testing.T) {
	settings := map[string]interface{}{
		"verify": map[string]interface{}{
			"attempts": 30,
		},
		"engine": map[string]interface{}{
			"socket": "/tmp/cofferd.sock",
		},
	}

	deleteNested(settings, []string{"verify", "attempts"})

	if _, ok := settings["verify"]; ok {
		t.Error("expected emptied verify map to be pruned")
	}
	if _, ok := settings["engine"]; !ok {
		t.Error("expected engine map to be untouched")
	}
}

func TestDeleteNested_KeepsSiblings(t *testing.T) {
	settings := map[string]interface{}{
		"verify": map[string]interface{}{
			"attempts":         30,
			"initial-delay-ms": 500,
		},
	}

	deleteNested(settings, []string{"verify", "attempts"})

	child, ok := settings["verify"].(map[string]interface{})
	if !ok {
		t.Fatal("expected verify map to survive")
	}
	if _, ok := child["initial-delay-ms"]; !ok {
		t.Error("expected sibling key to be untouched")
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"use-tui":                 "COFFER_USE_TUI",
		"engine.socket":           "COFFER_ENGINE_SOCKET",
		"verify.initial-delay-ms": "COFFER_VERIFY_INITIAL_DELAY_MS",
	}
	for key, want := range cases {
		if got := envName(key); got != want {
			t.Errorf("envName(%q) = %q, want %q", key, got, want)
		}
	}
}
