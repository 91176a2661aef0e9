package tui

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output is the sink CLI commands print results through. Two
// implementations exist: styled terminal output and machine-readable JSON.
type Output interface {
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)

	// JSON writes v as indented JSON regardless of the output format.
	JSON(v any) error
}

// NewOutput picks the implementation for the requested format. Anything
// other than "json" gets the styled terminal writer.
func NewOutput(w io.Writer, format string) Output {
	if format == "json" {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}

// TTYOutput renders messages with lipgloss styling for humans.
type TTYOutput struct {
	w      io.Writer
	styles *OutputStyles
}

// NewTTYOutput creates a styled writer. NO_COLOR is honored via
// CheckNoColor.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()

	return &TTYOutput{w: w, styles: NewOutputStyles()}
}

func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

func (o *TTYOutput) Error(err error) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))
}

func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render(msg))
}

func (o *TTYOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

// JSONOutput emits only JSON documents. Status chatter (Success, Warning,
// Info) is dropped so the stream stays parseable; errors become one-field
// objects.
type JSONOutput struct {
	w io.Writer
}

// NewJSONOutput creates a machine-readable writer.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w}
}

func (o *JSONOutput) Success(_ string) {}

func (o *JSONOutput) Error(err error) {
	_, _ = fmt.Fprintf(o.w, "{\"error\": %q}\n", err.Error())
}

func (o *JSONOutput) Warning(_ string) {}

func (o *JSONOutput) Info(_ string) {}

func (o *JSONOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
