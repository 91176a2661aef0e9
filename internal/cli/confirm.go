// Package cli provides the command-line interface for companion.
package cli

import (
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// terminalCheck is a variable for the terminal check function, allowing tests to override it.
//
//nolint:gochecknoglobals // Required for test injection of terminal detection
var terminalCheck = isTerminal

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmPrompt asks a yes/no question and returns the user's answer.
// Callers must check terminalCheck() first; the form blocks on stdin.
func confirmPrompt(title, description, affirmative, negative string) (bool, error) {
	var confirm bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative(negative).
				Value(&confirm),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirm, nil
}
