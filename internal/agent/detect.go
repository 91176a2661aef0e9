// Package agent implements detection of the agent runtime CLIs a companion
// team can spawn. Detection is advisory: a missing or outdated CLI is
// reported by `companion doctor` and surfaced when spawning, but never
// blocks mailbox or task operations.
package agent

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codingwatching/companion/internal/constants"
)

// Pre-compiled regexes for version parsing (compiled once at package init).
//
//nolint:gochecknoglobals // Package-level compiled regexes are a Go best practice for performance
var (
	// Claude version patterns (from most specific to most general)
	claudeVersionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)claude[- ]?code[- ]?v?(\d+\.\d+(?:\.\d+)?)`),
		regexp.MustCompile(`v?(\d+\.\d+\.\d+)`),
	}

	// Gemini version patterns (from most specific to most general)
	geminiVersionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)gemini[- ]?(?:cli)?[- ]?v?(\d+\.\d+(?:\.\d+)?)`),
		regexp.MustCompile(`v?(\d+\.\d+\.\d+)`),
	}

	// Codex version patterns (from most specific to most general)
	codexVersionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)codex[- ]?(?:cli)?[- ]?v?(\d+\.\d+(?:\.\d+)?)`),
		regexp.MustCompile(`v?(\d+\.\d+\.\d+)`),
	}
)

// Status represents the installation status of an agent runtime CLI.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver per json.Unmarshaler interface
type Status int

const (
	// StatusMissing indicates the CLI is not installed.
	StatusMissing Status = iota

	// StatusInstalled indicates the CLI is installed and meets version requirements.
	StatusInstalled

	// StatusOutdated indicates the CLI is installed but below the minimum version.
	StatusOutdated
)

// maxVersionSegments is the number of segments in a semantic version (major.minor.patch).
const maxVersionSegments = 3

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusMissing:
		return "missing"
	case StatusOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for human-readable JSON output.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for parsing JSON status strings.
func (s *Status) UnmarshalJSON(data []byte) error {
	str := string(data)
	// Remove quotes
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	switch str {
	case "installed":
		*s = StatusInstalled
	case "outdated":
		*s = StatusOutdated
	default:
		*s = StatusMissing
	}
	return nil
}

// CLI represents one agent runtime binary companion can spawn teammates with.
type CLI struct {
	// Name is the runtime identifier (e.g., "claude").
	Name string `json:"name"`

	// Required indicates the runtime must be present for spawning to work
	// out of the box.
	Required bool `json:"required"`

	// MinVersion is the minimum supported version (semver format).
	MinVersion string `json:"min_version"`

	// CurrentVersion is the detected installed version.
	CurrentVersion string `json:"current_version"`

	// Status is the current installation status.
	Status Status `json:"status"`

	// InstallHint provides installation instructions for missing runtimes.
	InstallHint string `json:"install_hint"`
}

// DetectionResult holds the results of detecting all agent runtimes.
type DetectionResult struct {
	// CLIs contains the detection result for each runtime.
	CLIs []CLI `json:"clis"`

	// HasMissingRequired indicates a required runtime is missing or outdated.
	HasMissingRequired bool `json:"has_missing_required"`
}

// MissingRequired returns the required runtimes that are missing or outdated.
func (r *DetectionResult) MissingRequired() []CLI {
	var missing []CLI
	for _, cli := range r.CLIs {
		if cli.Required && (cli.Status == StatusMissing || cli.Status == StatusOutdated) {
			missing = append(missing, cli)
		}
	}
	return missing
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the PATH.
	LookPath(file string) (string, error)

	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// DefaultCommandExecutor implements CommandExecutor using os/exec.
type DefaultCommandExecutor struct{}

// LookPath searches for an executable in the PATH.
func (e *DefaultCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *DefaultCommandExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Ensure output is captured and not printed to terminal
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Detector detects the installation status of agent runtime CLIs.
type Detector interface {
	// Detect checks all known runtimes and returns their status.
	Detect(ctx context.Context) (*DetectionResult, error)
}

// DefaultDetector implements Detector.
type DefaultDetector struct {
	executor CommandExecutor
}

// NewDetector creates a new DefaultDetector with the default executor.
func NewDetector() *DefaultDetector {
	return &DefaultDetector{
		executor: &DefaultCommandExecutor{},
	}
}

// NewDetectorWithExecutor creates a new DefaultDetector with a custom executor.
func NewDetectorWithExecutor(executor CommandExecutor) *DefaultDetector {
	return &DefaultDetector{
		executor: executor,
	}
}

// cliConfig holds the configuration for detecting a specific runtime.
type cliConfig struct {
	name        string
	command     string
	versionFlag string
	minVersion  string
	required    bool
	installHint string
	parseFunc   func(output string) string
}

// getCLIConfigs returns the configuration for all runtimes to detect.
func getCLIConfigs() []cliConfig {
	return []cliConfig{
		{
			name:        constants.ToolClaude,
			command:     constants.ToolClaude,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionClaude,
			required:    true, // The default runtime for spawned teammates
			installHint: "Install Claude CLI: npm install -g @anthropic-ai/claude-code",
			parseFunc:   parseClaudeVersion,
		},
		{
			name:        constants.ToolGemini,
			command:     constants.ToolGemini,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionGemini,
			required:    false,
			installHint: "Install Gemini CLI: npm install -g @google/gemini-cli",
			parseFunc:   parseGeminiVersion,
		},
		{
			name:        constants.ToolCodex,
			command:     constants.ToolCodex,
			versionFlag: constants.VersionFlagStandard,
			minVersion:  constants.MinVersionCodex,
			required:    false,
			installHint: "Install Codex CLI: npm install -g @openai/codex",
			parseFunc:   parseCodexVersion,
		},
	}
}

// Detect checks all known runtimes and returns their status.
func (d *DefaultDetector) Detect(ctx context.Context) (*DetectionResult, error) {
	// Check for cancellation at entry
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Apply timeout for detection
	detectCtx, cancel := context.WithTimeout(ctx, constants.ToolDetectionTimeout)
	defer cancel()

	configs := getCLIConfigs()
	result := &DetectionResult{
		CLIs: make([]CLI, 0, len(configs)),
	}
	var resultMu sync.Mutex

	g, gCtx := errgroup.WithContext(detectCtx)

	for _, cfg := range configs {
		g.Go(func() error {
			cli := d.detectCLI(gCtx, cfg)
			resultMu.Lock()
			result.CLIs = append(result.CLIs, cli)
			resultMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to detect agent runtimes: %w", err)
	}

	// Check if any required runtimes are missing
	for _, cli := range result.CLIs {
		if cli.Required && (cli.Status == StatusMissing || cli.Status == StatusOutdated) {
			result.HasMissingRequired = true
			break
		}
	}

	return result, nil
}

// detectCLI detects a single runtime's status.
func (d *DefaultDetector) detectCLI(ctx context.Context, cfg cliConfig) CLI {
	cli := CLI{
		Name:        cfg.name,
		Required:    cfg.required,
		MinVersion:  cfg.minVersion,
		InstallHint: cfg.installHint,
		Status:      StatusMissing,
	}

	// Check if the runtime exists in PATH
	_, err := d.executor.LookPath(cfg.command)
	if err != nil {
		return cli
	}

	// Get version
	output, err := d.executor.Run(ctx, cfg.command, cfg.versionFlag)
	if err != nil {
		// Runtime exists but version command failed - treat as installed without version info
		cli.Status = StatusInstalled
		cli.CurrentVersion = "unknown"
		return cli
	}

	// Parse version
	cli.CurrentVersion = cfg.parseFunc(output)
	if cli.CurrentVersion == "" {
		cli.CurrentVersion = "unknown"
		cli.Status = StatusInstalled
		return cli
	}

	// Compare versions if minimum is specified
	if cfg.minVersion != "" {
		if CompareVersions(cli.CurrentVersion, cfg.minVersion) < 0 {
			cli.Status = StatusOutdated
		} else {
			cli.Status = StatusInstalled
		}
	} else {
		// No minimum version, just needs to be present
		cli.Status = StatusInstalled
	}

	return cli
}

// Version parsing functions for each runtime.
// All functions use pre-compiled regexes defined at package level.

// parseClaudeVersion parses various Claude version formats.
// Examples: "Claude Code 2.0.76", "claude-code 2.0.76", "2.0.76"
func parseClaudeVersion(output string) string {
	for _, re := range claudeVersionPatterns {
		if matches := re.FindStringSubmatch(output); len(matches) >= 2 {
			return matches[1]
		}
	}
	return ""
}

// parseGeminiVersion parses various Gemini CLI version formats.
// Examples: "gemini 0.22.5", "gemini-cli 0.22.5", "0.22.5"
func parseGeminiVersion(output string) string {
	for _, re := range geminiVersionPatterns {
		if matches := re.FindStringSubmatch(output); len(matches) >= 2 {
			return matches[1]
		}
	}
	return ""
}

// parseCodexVersion parses various Codex CLI version formats.
// Examples: "codex 0.77.0", "Codex CLI v0.77.0", "0.77.0"
func parseCodexVersion(output string) string {
	for _, re := range codexVersionPatterns {
		if matches := re.FindStringSubmatch(output); len(matches) >= 2 {
			return matches[1]
		}
	}
	return ""
}

// CompareVersions compares two semantic versions.
// Returns:
//
//	-1 if current < required
//	 0 if current == required
//	 1 if current > required
func CompareVersions(current, required string) int {
	// Normalize versions by removing 'v' prefix
	current = strings.TrimPrefix(current, "v")
	required = strings.TrimPrefix(required, "v")

	currentParts := parseVersionParts(current)
	requiredParts := parseVersionParts(required)

	// Compare each part
	for i := 0; i < maxVersionSegments; i++ {
		if currentParts[i] < requiredParts[i] {
			return -1
		}
		if currentParts[i] > requiredParts[i] {
			return 1
		}
	}

	return 0
}

// parseVersionParts parses a version string into [major, minor, patch].
func parseVersionParts(version string) [maxVersionSegments]int {
	var parts [maxVersionSegments]int
	segments := strings.Split(version, ".")

	for i := 0; i < len(segments) && i < maxVersionSegments; i++ {
		// Extract only numeric portion (handle formats like "0.5.x")
		numStr := segments[i]
		for j, c := range numStr {
			if c < '0' || c > '9' {
				numStr = numStr[:j]
				break
			}
		}
		if numStr != "" {
			parts[i], _ = strconv.Atoi(numStr)
		}
	}

	return parts
}

// FormatMissingError creates a formatted error message for missing runtimes.
func FormatMissingError(missing []CLI) string {
	if len(missing) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing agent runtimes:\n\n")

	for _, cli := range missing {
		status := "missing"
		if cli.Status == StatusOutdated {
			status = fmt.Sprintf("outdated (have %s, need %s)", cli.CurrentVersion, cli.MinVersion)
		}
		sb.WriteString(fmt.Sprintf("  • %s: %s\n", cli.Name, status))
		sb.WriteString(fmt.Sprintf("    Install: %s\n\n", cli.InstallHint))
	}

	return sb.String()
}
