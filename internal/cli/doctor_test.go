package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/agent"
	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/testutil"
	"github.com/codingwatching/companion/internal/tui"
)

// mockDetector is a test double for agent.Detector.
type mockDetector struct {
	result *agent.DetectionResult
	err    error
}

// Detect returns the configured result or error.
func (m *mockDetector) Detect(_ context.Context) (*agent.DetectionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestDoctor_AllRuntimesInstalled(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{Name: "claude", Required: true, MinVersion: "2.0.0", CurrentVersion: "2.0.76", Status: agent.StatusInstalled},
				{Name: "gemini", Required: false, MinVersion: "0.20.0", CurrentVersion: "0.22.5", Status: agent.StatusInstalled},
			},
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputText, detector)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "RUNTIME")
	assert.Contains(t, output, "claude")
	assert.Contains(t, output, "2.0.76")
	assert.Contains(t, output, "✓ installed")
	assert.Contains(t, output, "All required agent runtimes are available.")
}

func TestDoctor_MissingRequiredRuntime(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{
					Name:        "claude",
					Required:    true,
					MinVersion:  "2.0.0",
					Status:      agent.StatusMissing,
					InstallHint: "Install Claude CLI: npm install -g @anthropic-ai/claude-code",
				},
			},
			HasMissingRequired: true,
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputText, detector)
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrRuntimeMissing)

	output := buf.String()
	assert.Contains(t, output, "✗ missing")
	assert.Contains(t, output, "Missing agent runtimes:")
	assert.Contains(t, output, "npm install -g @anthropic-ai/claude-code")
}

func TestDoctor_OutdatedRequiredRuntime(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{
					Name:           "claude",
					Required:       true,
					MinVersion:     "2.0.0",
					CurrentVersion: "1.9.9",
					Status:         agent.StatusOutdated,
					InstallHint:    "Install Claude CLI: npm install -g @anthropic-ai/claude-code",
				},
			},
			HasMissingRequired: true,
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputText, detector)
	require.ErrorIs(t, err, errors.ErrRuntimeMissing)

	output := buf.String()
	assert.Contains(t, output, "⚠ outdated")
	assert.Contains(t, output, "outdated (have 1.9.9, need 2.0.0)")
}

func TestDoctor_OptionalRuntimeMissingIsFine(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{Name: "claude", Required: true, CurrentVersion: "2.0.76", Status: agent.StatusInstalled},
				{Name: "codex", Required: false, Status: agent.StatusMissing},
			},
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputText, detector)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✗ missing")
	assert.Contains(t, output, "All required agent runtimes are available.")
}

func TestDoctor_JSONOutput(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{Name: "claude", Required: true, MinVersion: "2.0.0", CurrentVersion: "2.0.76", Status: agent.StatusInstalled},
				{Name: "gemini", Required: false, MinVersion: "0.20.0", CurrentVersion: "0.22.5", Status: agent.StatusInstalled},
			},
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputJSON, detector)
	require.NoError(t, err)

	var result agent.DetectionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result.CLIs, 2)
	assert.Equal(t, "claude", result.CLIs[0].Name)
	assert.Equal(t, agent.StatusInstalled, result.CLIs[0].Status)
	assert.False(t, result.HasMissingRequired)
}

func TestDoctor_JSONStillEmittedWhenMissing(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{
		result: &agent.DetectionResult{
			CLIs: []agent.CLI{
				{Name: "claude", Required: true, MinVersion: "2.0.0", Status: agent.StatusMissing},
			},
			HasMissingRequired: true,
		},
	}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputJSON, detector)
	require.ErrorIs(t, err, errors.ErrRuntimeMissing)

	// Scripts get the full report on stdout and the failure on the exit code.
	var result agent.DetectionResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.True(t, result.HasMissingRequired)
	assert.Equal(t, agent.StatusMissing, result.CLIs[0].Status)
}

func TestDoctor_DetectorError(t *testing.T) {
	t.Parallel()

	detector := &mockDetector{err: testutil.ErrMockDetectFailed}

	var buf bytes.Buffer
	err := runDoctorWithDetector(context.Background(), &buf, OutputText, detector)
	require.Error(t, err)
	require.ErrorIs(t, err, testutil.ErrMockDetectFailed)
	assert.Contains(t, err.Error(), "failed to detect agent runtimes")
	assert.Empty(t, buf.String())
}

func TestDoctor_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := testCommand(t, OutputText)
	var buf bytes.Buffer
	err := runDoctor(ctx, cmd, &buf)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSortRuntimes(t *testing.T) {
	t.Parallel()

	result := &agent.DetectionResult{
		CLIs: []agent.CLI{
			{Name: "gemini", Required: false},
			{Name: "codex", Required: false},
			{Name: "claude", Required: true},
		},
	}

	sortRuntimes(result)

	names := make([]string, 0, len(result.CLIs))
	for _, cli := range result.CLIs {
		names = append(names, cli.Name)
	}
	assert.Equal(t, []string{"claude", "codex", "gemini"}, names, "required runtimes sort first, then by name")
}

func TestSortRuntimes_RequiredTieBreaksByName(t *testing.T) {
	t.Parallel()

	result := &agent.DetectionResult{
		CLIs: []agent.CLI{
			{Name: "zeta", Required: true},
			{Name: "alpha", Required: true},
			{Name: "mid", Required: false},
		},
	}

	sortRuntimes(result)

	assert.Equal(t, "alpha", result.CLIs[0].Name)
	assert.Equal(t, "zeta", result.CLIs[1].Name)
	assert.Equal(t, "mid", result.CLIs[2].Name)
}

func TestDisplayRuntimeTable_TruncatesLongVersions(t *testing.T) {
	t.Parallel()

	result := &agent.DetectionResult{
		CLIs: []agent.CLI{
			{Name: "claude", Required: true, CurrentVersion: "2.0.76-nightly.20260801", Status: agent.StatusInstalled},
		},
	}

	var buf bytes.Buffer
	displayRuntimeTable(&buf, result)

	output := buf.String()
	assert.Contains(t, output, "2.0.76-night")
	assert.NotContains(t, output, "2.0.76-nightly")
}

func TestDisplayRuntimeTable_BlankVersionShowsDash(t *testing.T) {
	t.Parallel()

	result := &agent.DetectionResult{
		CLIs: []agent.CLI{
			{Name: "codex", Required: false, Status: agent.StatusMissing},
		},
	}

	var buf bytes.Buffer
	displayRuntimeTable(&buf, result)

	// The separator uses box-drawing characters, so a plain hyphen only
	// appears as the empty-version placeholder.
	assert.Contains(t, buf.String(), "-")
}

func TestFormatRuntimeStatus(t *testing.T) {
	t.Parallel()

	styles := tui.NewOutputStyles()

	testCases := []struct {
		name   string
		status agent.Status
		want   string
	}{
		{name: "installed", status: agent.StatusInstalled, want: "✓ installed"},
		{name: "missing", status: agent.StatusMissing, want: "✗ missing"},
		{name: "outdated", status: agent.StatusOutdated, want: "⚠ outdated"},
		{name: "unknown", status: agent.Status(99), want: "? unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Contains(t, formatRuntimeStatus(tc.status, styles), tc.want)
		})
	}
}
