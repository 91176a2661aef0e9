// Package cli provides the command-line interface for companion.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codingwatching/companion/internal/agent"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/tui"
)

// separatorWidthDoctor is the width of the doctor table separator line.
const separatorWidthDoctor = 48

// AddDoctorCommand adds the doctor command to the root command.
func AddDoctorCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check agent runtime CLIs",
		Long: `Detect the agent runtime CLIs companion can spawn teammates with and
report whether each is installed, outdated, or missing.

Detection is advisory: mailbox and task operations work without any
runtime installed, but spawning teammates requires at least the default
runtime.

Examples:
  companion doctor               # Styled status table
  companion doctor --output json # Machine-readable report`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runDoctor(cmd.Context(), cmd, os.Stdout)
			// The table already shows what is missing; suppress the
			// duplicate error print while keeping the exit code.
			if stderrors.Is(err, errors.ErrRuntimeMissing) {
				cmd.SilenceErrors = true
			}
			return err
		},
	}
	parent.AddCommand(cmd)
}

// runDoctor executes the doctor command with the default detector.
func runDoctor(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Get output format from global flags
	output := cmd.Flag("output").Value.String()

	// Respect NO_COLOR environment variable
	tui.CheckNoColor()

	return runDoctorWithDetector(ctx, w, output, agent.NewDetector())
}

// runDoctorWithDetector executes the doctor command with an injected detector.
// This enables testing with mock implementations.
func runDoctorWithDetector(ctx context.Context, w io.Writer, output string, detector agent.Detector) error {
	logger := GetLogger()

	result, err := detector.Detect(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("agent runtime detection failed")
		return fmt.Errorf("failed to detect agent runtimes: %w", err)
	}

	sortRuntimes(result)

	if output == OutputJSON {
		if err := tui.NewJSONOutput(w).JSON(result); err != nil {
			return err
		}
		if result.HasMissingRequired {
			return fmt.Errorf("doctor found problems: %w", errors.ErrRuntimeMissing)
		}
		return nil
	}

	displayRuntimeTable(w, result)

	if result.HasMissingRequired {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprint(w, agent.FormatMissingError(result.MissingRequired()))
		return fmt.Errorf("doctor found problems: %w", errors.ErrRuntimeMissing)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "All required agent runtimes are available.")

	return nil
}

// sortRuntimes orders detection results required-first, then by name.
// Detection runs concurrently, so the raw order is nondeterministic.
func sortRuntimes(result *agent.DetectionResult) {
	sort.Slice(result.CLIs, func(i, j int) bool {
		if result.CLIs[i].Required != result.CLIs[j].Required {
			return result.CLIs[i].Required
		}
		return result.CLIs[i].Name < result.CLIs[j].Name
	})
}

// displayRuntimeTable renders the detection result as an aligned table with a
// styled status column. Status comes last so its escape codes cannot skew the
// column padding.
func displayRuntimeTable(w io.Writer, result *agent.DetectionResult) {
	styles := tui.NewOutputStyles()

	_, _ = fmt.Fprintln(w, styles.Dim.Render("RUNTIME         REQUIRED   VERSION        STATUS"))
	_, _ = fmt.Fprintln(w, styles.Dim.Render(strings.Repeat("─", separatorWidthDoctor)))

	for _, cli := range result.CLIs {
		requiredStr := "optional"
		if cli.Required {
			requiredStr = "yes"
		}

		version := cli.CurrentVersion
		if version == "" {
			version = "-"
		}
		if len(version) > 12 {
			version = version[:12]
		}

		_, _ = fmt.Fprintf(w, "%-15s %-10s %-14s %s\n",
			cli.Name, requiredStr, version, formatRuntimeStatus(cli.Status, styles))
	}
}

// formatRuntimeStatus returns a styled status string for a runtime.
func formatRuntimeStatus(status agent.Status, styles *tui.OutputStyles) string {
	switch status {
	case agent.StatusInstalled:
		return styles.Success.Render("✓ installed")
	case agent.StatusMissing:
		return styles.Error.Render("✗ missing")
	case agent.StatusOutdated:
		return styles.Warning.Render("⚠ outdated")
	default:
		return styles.Dim.Render("? unknown")
	}
}
