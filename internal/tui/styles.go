// Package tui provides terminal user interface components for companion.
//
// This package provides a centralized style system using Lip Gloss for
// consistent TUI component styling. All colors use AdaptiveColor for
// light/dark terminal support.
//
// # Semantic Colors
//
// Five semantic colors are exported for use across TUI components:
//   - ColorPrimary (Blue): Active states, links, primary actions
//   - ColorSuccess (Green): Success states, completed items
//   - ColorWarning (Yellow): Warning states, attention required
//   - ColorError (Red): Error states, failed items
//   - ColorMuted (Gray): Dim/inactive states, secondary text
//
// # Status Icons
//
// Triple redundancy is maintained for all status displays: icon + color +
// text. See TaskStatusIcon for the icon mapping.
//
// # NO_COLOR Support
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR
// environment variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codingwatching/companion/internal/constants"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for active states, links, and primary actions.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states and completed items.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warning states and attention-required items.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for error states and failed items.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for dim/inactive states and secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim/faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// titleCaser humanizes snake_case status words ("in_progress" -> "In Progress").
//
//nolint:gochecknoglobals // Caser instances are immutable and safe to share
var titleCaser = cases.Title(language.English)

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header       lipgloss.Style
	Cell         lipgloss.Style
	Dim          lipgloss.Style
	StatusColors map[constants.TaskStatus]lipgloss.AdaptiveColor
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		StatusColors: TaskStatusColors(),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for
// light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or
// TERM=dumb. This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	// NO_COLOR spec: If NO_COLOR exists in the environment (with any value,
	// including empty), color should be disabled.
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	// Also disable colors for dumb terminals
	if os.Getenv("TERM") == "dumb" {
		return false
	}

	return true
}

// TaskStatusColors returns the semantic color definitions for task statuses.
// Custom statuses fall back to ColorWarning at render time since any string
// outside the built-in set means the team flagged something unusual.
func TaskStatusColors() map[constants.TaskStatus]lipgloss.AdaptiveColor {
	return map[constants.TaskStatus]lipgloss.AdaptiveColor{
		constants.TaskStatusPending:    ColorMuted,
		constants.TaskStatusInProgress: ColorPrimary,
		constants.TaskStatusCompleted:  ColorSuccess,
	}
}

// TaskStatusColor returns the color for a task status, falling back to
// ColorWarning for custom statuses.
func TaskStatusColor(status constants.TaskStatus) lipgloss.AdaptiveColor {
	if color, ok := TaskStatusColors()[status]; ok {
		return color
	}
	return ColorWarning
}

// TaskStatusIcon returns the icon/symbol for a given task status.
// Used for visual status indicators in status displays.
func TaskStatusIcon(status constants.TaskStatus) string {
	icons := map[constants.TaskStatus]string{
		constants.TaskStatusPending:    "○", // Empty circle - waiting
		constants.TaskStatusInProgress: "●", // Filled circle - active
		constants.TaskStatusCompleted:  "✓", // Checkmark - done
	}
	if icon, ok := icons[status]; ok {
		return icon
	}
	return "◆" // Custom status
}

// TaskStatusLabel returns the human-readable label for a task status.
// Built-in statuses get fixed labels; custom snake_case statuses are
// title-cased ("waiting_on_qa" -> "Waiting On Qa").
func TaskStatusLabel(status constants.TaskStatus) string {
	switch status {
	case constants.TaskStatusPending:
		return "Pending"
	case constants.TaskStatusInProgress:
		return "In Progress"
	case constants.TaskStatusCompleted:
		return "Completed"
	}
	return titleCaser.String(strings.ReplaceAll(status.String(), "_", " "))
}

// FormatTaskStatus formats a status with its icon and label for triple
// redundancy (icon + color + text). Color is applied via Lip Gloss styles
// when rendered; this function provides icon + text.
func FormatTaskStatus(status constants.TaskStatus) string {
	return TaskStatusIcon(status) + " " + TaskStatusLabel(status)
}

// AgentTypeLabel returns the human-readable label for a member role.
func AgentTypeLabel(agentType constants.AgentType) string {
	return titleCaser.String(agentType.String())
}

// DefaultBoxWidth is the default width for TUI boxes.
const DefaultBoxWidth = 100

// BoxBorder defines the characters used for box borders.
type BoxBorder struct {
	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string
	Top         string
	Bottom      string
	Left        string
	Right       string
	MiddleLeft  string // For divider lines
	MiddleRight string
}

// DefaultBorder is the default border style with square corners.
//
//nolint:gochecknoglobals // Intentional package-level constant for TUI border styling
var DefaultBorder = BoxBorder{
	TopLeft:     "┌",
	TopRight:    "┐",
	BottomLeft:  "└",
	BottomRight: "┘",
	Top:         "─",
	Bottom:      "─",
	Left:        "│",
	Right:       "│",
	MiddleLeft:  "├",
	MiddleRight: "┤",
}

// BoxStyle holds configuration for rendering bordered boxes.
type BoxStyle struct {
	Width  int
	Border *BoxBorder
}

// NewBoxStyle creates a new BoxStyle with defaults.
func NewBoxStyle() *BoxStyle {
	border := DefaultBorder
	return &BoxStyle{
		Width:  DefaultBoxWidth,
		Border: &border,
	}
}

// WithWidth returns a new BoxStyle with the specified width.
func (b *BoxStyle) WithWidth(width int) *BoxStyle {
	return &BoxStyle{
		Width:  width,
		Border: b.Border,
	}
}

// Render renders a box with the given title and content.
// Supports multi-line content by splitting on newlines.
func (b *BoxStyle) Render(title, content string) string {
	innerWidth := b.Width - 2 // Account for left and right borders

	topLine := b.Border.TopLeft + strings.Repeat(b.Border.Top, innerWidth) + b.Border.TopRight
	titleLine := b.Border.Left + " " + padRight(title, innerWidth-1) + b.Border.Right
	dividerLine := b.Border.MiddleLeft + strings.Repeat(b.Border.Top, innerWidth) + b.Border.MiddleRight

	splitLines := strings.Split(content, "\n")
	contentLines := make([]string, 0, len(splitLines))
	for _, line := range splitLines {
		contentLines = append(contentLines, b.Border.Left+" "+padRight(line, innerWidth-1)+b.Border.Right)
	}

	bottomLine := b.Border.BottomLeft + strings.Repeat(b.Border.Bottom, innerWidth) + b.Border.BottomRight

	result := topLine + "\n" + titleLine + "\n" + dividerLine + "\n"
	result += strings.Join(contentLines, "\n")
	result += "\n" + bottomLine

	return result
}

// stripANSI removes ANSI escape codes from a string.
// Used to calculate visible character count (excluding color codes).
// Handles both CSI sequences (\x1b[...letter) and OSC sequences (\x1b]...ST).
func stripANSI(s string) string {
	var result strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		if newI := trySkipANSI(runes, i); newI != i {
			i = newI
			continue
		}
		result.WriteRune(runes[i])
		i++
	}
	return result.String()
}

// trySkipANSI attempts to skip an ANSI escape sequence starting at position i.
// Returns the new position after the sequence, or i if no sequence was found.
func trySkipANSI(runes []rune, i int) int {
	if i >= len(runes) || runes[i] != '\x1b' || i+1 >= len(runes) {
		return i
	}

	next := runes[i+1]
	if next == '[' {
		return skipCSISequence(runes, i)
	}
	if next == ']' {
		return skipOSCSequence(runes, i)
	}
	return i
}

// skipCSISequence skips a CSI sequence: \x1b[...letter
func skipCSISequence(runes []rune, i int) int {
	i += 2 // skip \x1b[
	for i < len(runes) {
		c := runes[i]
		i++
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			break // CSI sequence ends with a letter
		}
	}
	return i
}

// skipOSCSequence skips an OSC sequence: \x1b]...ST (where ST is \x1b\\ or \x07)
func skipOSCSequence(runes []rune, i int) int {
	i += 2 // skip \x1b]
	for i < len(runes) {
		c := runes[i]
		if c == '\x07' {
			i++ // skip BEL terminator
			break
		}
		if c == '\x1b' && i+1 < len(runes) && runes[i+1] == '\\' {
			i += 2 // skip ST (\x1b\\)
			break
		}
		i++
	}
	return i
}

// padRight pads a string to the right to reach the target display width.
// Uses terminal display width (excluding ANSI escape codes) so wide runes
// and color codes do not skew alignment.
func padRight(s string, width int) string {
	visible := stripANSI(s)
	displayWidth := runewidth.StringWidth(visible)
	if displayWidth >= width {
		return runewidth.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-displayWidth)
}
