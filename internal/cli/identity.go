// Package cli provides the command-line interface for companion.
package cli

import (
	"fmt"
	"os"

	"github.com/codingwatching/companion/internal/constants"
	"github.com/codingwatching/companion/internal/errors"
)

// resolveTeam returns the team a command should act on. The --team flag wins;
// otherwise the COMPANION_TEAM variable that the coordinator injects into
// spawned agent processes is used. Commands that cannot infer a team fail
// rather than guess.
func resolveTeam(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(constants.EnvTeam); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("team name %w (pass --team or set %s)", errors.ErrEmptyValue, constants.EnvTeam)
}

// resolveIdentity returns the agent name a command should act as. The flag
// wins; otherwise COMPANION_AGENT identifies a spawned teammate. A human
// operator running outside any agent process acts as the lead.
func resolveIdentity(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(constants.EnvAgent); env != "" {
		return env
	}
	return constants.DefaultLeadName
}
