// SPDX-License-Identifier: Apache-2.0
package cmdutil

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/coffer-backup/coffer/pkg/config"
	"github.com/coffer-backup/coffer/pkg/engine"
	"github.com/coffer-backup/coffer/pkg/repo"
	"github.com/coffer-backup/coffer/pkg/ui"
)

// EnvRepoPassword is the environment variable consulted for the repository
// password in non-interactive mode. Passwords are never accepted as flags;
// they would leak into shell history and process listings.
const EnvRepoPassword = "COFFER_REPO_PASSWORD"

// IsInteractive checks if stdin is connected to a terminal AND the user wants TUI mode
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && config.GetUseTUI()
}

// GetRepoPassword resolves the repository password: environment variable
// first, then piped stdin, then an interactive prompt.
func GetRepoPassword(prompt string) (string, error) {
	if password := os.Getenv(EnvRepoPassword); password != "" {
		return password, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			password := strings.TrimSpace(scanner.Text())
			if password != "" {
				return password, nil
			}
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password from stdin: %w", err)
		}
		return "", fmt.Errorf("no password provided: set %s or pipe via stdin", EnvRepoPassword)
	}

	return ui.PasswordInput(prompt, "Repository password")
}

// NewEngineClient creates a cofferd client for the configured socket
func NewEngineClient() *engine.Client {
	return engine.NewClient(config.GetEngineSocket(), nil)
}

// NewSession creates an orchestrator session over the configured engine,
// applying the configured verification schedule
func NewSession() *repo.Session {
	session := repo.NewSession(NewEngineClient())

	verifier := session.Verifier()
	if attempts := config.GetVerifyAttempts(); attempts > 0 {
		verifier.Attempts = attempts
	}
	if ms := config.GetVerifyInitialDelayMs(); ms > 0 {
		verifier.InitialDelay = time.Duration(ms) * time.Millisecond
	}
	if ms := config.GetVerifySteadyDelayMs(); ms > 0 {
		verifier.SteadyDelay = time.Duration(ms) * time.Millisecond
	}

	return session
}
