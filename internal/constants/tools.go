// Package constants provides centralized constant values used throughout companion.
// This file contains tool-related constants for the agent CLI detection system.
package constants

import "time"

// Tool detection timeout configuration.
const (
	// ToolDetectionTimeout is the maximum duration for detecting all tools.
	// Detection runs in parallel but must complete within this timeout.
	ToolDetectionTimeout = 2 * time.Second
)

// Tool names used by the agent CLI detection system.
const (
	// ToolClaude is the Claude Code CLI.
	ToolClaude = "claude"

	// ToolGemini is the Gemini CLI.
	ToolGemini = "gemini"

	// ToolCodex is the Codex CLI.
	ToolCodex = "codex"
)

// Minimum version requirements for agent CLIs. An installed CLI below its
// minimum is reported as outdated by the compatibility checker; detection
// never blocks protocol logic.
const (
	// MinVersionClaude is the minimum Claude Code version with team support.
	MinVersionClaude = "2.0.0"

	// MinVersionGemini is the minimum supported Gemini CLI version.
	MinVersionGemini = "0.10.0"

	// MinVersionCodex is the minimum supported Codex CLI version.
	MinVersionCodex = "0.40.0"
)

// Tool version command arguments.
const (
	// VersionFlagStandard is the standard version flag used by agent CLIs.
	VersionFlagStandard = "--version"
)
