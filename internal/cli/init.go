// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codingwatching/companion/internal/agent"
	"github.com/codingwatching/companion/internal/config"
	"github.com/codingwatching/companion/internal/paths"
	"github.com/codingwatching/companion/internal/tui"
)

// InitFlags holds flags specific to the init command.
type InitFlags struct {
	// Force overwrites an existing configuration file without prompting.
	Force bool
}

// newInitCmd creates the init command for setting up the companion data home.
func newInitCmd(flags *InitFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the companion data home",
		Long: `Create the companion data directory layout and a starter configuration.

The data home (default ~/.companion, override with COMPANION_HOME) holds
team registries, agent mailboxes, task boards, logs, and config.yaml.
Init is safe to run repeatedly; existing teams and tasks are never touched.

Agent runtime CLIs are detected and reported, but a missing runtime does
not fail init: mailbox and task operations work without one.

Examples:
  companion init          # Create layout, prompt before overwriting config
  companion init --force  # Overwrite existing config without prompting`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd, os.Stdout, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "overwrite existing configuration without prompting")

	return cmd
}

// AddInitCommand adds the init command to the root command.
func AddInitCommand(parent *cobra.Command) {
	flags := &InitFlags{}
	parent.AddCommand(newInitCmd(flags))
}

// initResult represents the JSON output for init.
type initResult struct {
	Status        string `json:"status"`
	Home          string `json:"home"`
	ConfigPath    string `json:"config_path"`
	ConfigWritten bool   `json:"config_written"`
}

// runInit executes the init command.
func runInit(ctx context.Context, cmd *cobra.Command, w io.Writer, flags *InitFlags) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := GetLogger()

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	res, err := paths.NewResolver("")
	if err != nil {
		return fmt.Errorf("failed to resolve data home: %w", err)
	}

	if err := res.EnsureLayout(); err != nil {
		return fmt.Errorf("failed to create data home layout: %w", err)
	}

	logger.Info().Str("home", res.Base()).Msg("data home layout ensured")

	configWritten, err := writeStarterConfig(res, flags.Force, output, w)
	if err != nil {
		return err
	}

	if output == OutputJSON {
		return tui.NewJSONOutput(w).JSON(initResult{
			Status:        "initialized",
			Home:          res.Base(),
			ConfigPath:    res.ConfigPath(),
			ConfigWritten: configWritten,
		})
	}

	out := tui.NewTTYOutput(w)
	out.Success(fmt.Sprintf("Companion data home ready at %s", res.Base()))
	if configWritten {
		out.Info(fmt.Sprintf("  Config: %s", res.ConfigPath()))
	}
	out.Info(fmt.Sprintf("  Logs:   %s", res.LogFilePath()))

	// Runtime detection is advisory; report but never fail init on it.
	reportRuntimes(ctx, w, output)

	return nil
}

// writeStarterConfig writes the default configuration to the data home.
// An existing config file is backed up and only overwritten with --force or
// interactive confirmation. Returns whether a config file was written.
func writeStarterConfig(res *paths.Resolver, force bool, output string, w io.Writer) (bool, error) {
	logger := GetLogger()
	configPath := res.ConfigPath()

	if _, statErr := os.Stat(configPath); statErr == nil && !force {
		if output == OutputJSON || !terminalCheck() {
			// Keep the existing file in non-interactive runs.
			return false, nil
		}

		overwrite, err := confirmOverwriteConfig(configPath)
		if err != nil {
			return false, fmt.Errorf("failed to get confirmation: %w", err)
		}
		if !overwrite {
			_, _ = fmt.Fprintln(w, "Keeping existing configuration.")
			return false, nil
		}
	}

	// Back up an existing config before overwriting (best effort).
	if _, statErr := os.Stat(configPath); statErr == nil {
		backupPath := configPath + ".backup"
		if copyErr := copyFile(configPath, backupPath); copyErr != nil {
			logger.Warn().
				Err(copyErr).
				Str("backup_path", backupPath).
				Msg("failed to create config backup")
		}
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}

	header := fmt.Sprintf("# Companion Configuration\n# Generated by companion init on %s\n\n",
		time.Now().Format(time.RFC3339))
	content := header + string(data)

	if err := os.WriteFile(configPath, []byte(content), paths.FilePerm); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// confirmOverwriteConfig prompts before replacing an existing config file.
func confirmOverwriteConfig(configPath string) (bool, error) {
	return confirmPrompt(
		"Overwrite existing configuration?",
		fmt.Sprintf("%s already exists. A backup will be kept.", configPath),
		"Yes, overwrite",
		"No, keep it",
	)
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // Source is config file
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, paths.FilePerm)
}

// reportRuntimes prints the agent runtime detection table after init.
func reportRuntimes(ctx context.Context, w io.Writer, output string) {
	if output == OutputJSON {
		return
	}

	result, err := agent.NewDetector().Detect(ctx)
	if err != nil {
		logger := GetLogger()
		logger.Debug().Err(err).Msg("runtime detection skipped")
		return
	}
	sortRuntimes(result)

	_, _ = fmt.Fprintln(w)
	displayRuntimeTable(w, result)

	if result.HasMissingRequired {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "Spawning teammates needs the runtimes above; run 'companion doctor' for details.")
	}
}
