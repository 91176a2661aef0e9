// Package logging provides logging utilities including sensitive data filtering.
// Mailbox payloads are authored by external agents and can embed credentials;
// this package contains hooks and utilities for zerolog that help ensure such
// data is never written to log files.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// sensitivePatterns contains compiled regular expressions for detecting sensitive values.
// These patterns match common API key, token, and credential formats.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Anthropic API keys (sk-ant-api...)
	regexp.MustCompile(`sk-ant-api[a-zA-Z0-9_-]+`),

	// OpenAI API keys (sk-...)
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),

	// GitHub tokens (ghp_, gho_, ghu_, ghs_, ghr_)
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),

	// Generic API keys (any string with api_key, apikey, api-key followed by value)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?([a-zA-Z0-9_-]{16,})["']?`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_-]{20,}`),

	// Authorization headers with tokens
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?[a-zA-Z0-9_-]{20,}["']?`),

	// Generic secret patterns (secret, password, credential, token with values)
	regexp.MustCompile(`(?i)(secret|password|credential|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`),

	// SSH private keys (starts with -----)
	regexp.MustCompile(`(?i)-----BEGIN[A-Z\s]+PRIVATE KEY-----`),

	// Base64-encoded secrets that look like tokens (long alphanumeric strings)
	regexp.MustCompile(`(?i)(token|auth)\s*[:=]\s*["']?[a-zA-Z0-9+/=]{32,}["']?`),
}

// sensitiveFieldNames contains field names that should always have their values redacted.
// Case-insensitive matching is performed.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"api_key",
	"apikey",
	"api-key",
	"auth_token",
	"authtoken",
	"auth-token",
	"password",
	"passwd",
	"secret",
	"credential",
	"credentials",
	"private_key",
	"privatekey",
	"private-key",
	"access_token",
	"accesstoken",
	"access-token",
	"refresh_token",
	"refreshtoken",
	"refresh-token",
	"bearer",
	"authorization",
	"anthropic_api_key",
	"github_token",
	"openai_api_key",
	"google_api_key",
}

// previewMaxLen is the maximum length of a payload preview in log output.
const previewMaxLen = 80

// SensitiveDataHook is a zerolog hook that flags sensitive data in log entries.
// It examines the message string and marks events whose content matches known
// sensitive patterns.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook for filtering sensitive data.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
// Zerolog hooks have limited access to event data. This hook primarily
// works by flagging the message string; field-level filtering happens via
// SafeValue at log call sites and FilteringWriter at the sink.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	// zerolog does not allow modifying the message in a hook, so the hook
	// only flags potentially sensitive logs for the sink-level filter.
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData checks if a string contains any sensitive data patterns.
// Returns true if any sensitive pattern is found.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue filters sensitive data from a string value.
// It replaces any matches of sensitive patterns with [REDACTED].
// This function should be used when logging potentially sensitive values.
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// fieldSeparators are the characters recognized as word boundaries inside
// field names ("db_password", "app-secret-key").
var fieldSeparators = []string{"_", "-"} //nolint:gochecknoglobals // Package-level patterns for reuse

// sensitiveFieldSet enables O(1) exact-name lookups before the slower
// word-boundary scan.
var sensitiveFieldSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(sensitiveFieldNames))
	for _, name := range sensitiveFieldNames {
		set[name] = struct{}{}
	}
	return set
}() //nolint:gochecknoglobals // Package-level patterns for reuse

// IsSensitiveFieldName checks if a field name indicates sensitive data.
// Matching is case-insensitive and word-boundary aware: "db_password" matches,
// "secretariat" does not.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	if _, ok := sensitiveFieldSet[lowerName]; ok {
		return true
	}
	for _, sensitive := range sensitiveFieldNames {
		if containsWordBoundary(lowerName, sensitive, fieldSeparators) {
			return true
		}
	}
	return false
}

// containsWordBoundary reports whether word appears in name delimited by one
// of the separators as a prefix, suffix, or infix. Exact equality is not a
// boundary match.
func containsWordBoundary(name, word string, seps []string) bool {
	if name == "" || word == "" {
		return false
	}
	for _, sep := range seps {
		if strings.HasPrefix(name, word+sep) {
			return true
		}
		if strings.HasSuffix(name, sep+word) {
			return true
		}
		for _, sep2 := range seps {
			if strings.Contains(name, sep+word+sep2) {
				return true
			}
		}
	}
	return false
}

// RedactIfSensitive returns [REDACTED] if the field name indicates sensitive data,
// otherwise returns the original value with sensitive patterns filtered.
func RedactIfSensitive(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// SafeValue returns a filtered value for a field, redacting sensitive data.
// This is a convenience wrapper for adding filtered string fields to log events.
//
// Usage:
//
//	log.Info().Str("payload", logging.SafeValue("payload", entry.Text)).Msg("delivered")
func SafeValue(fieldName, value string) string {
	return RedactIfSensitive(fieldName, value)
}

// PayloadPreview returns a short, single-line, redacted form of a mailbox
// payload suitable for log fields. Newlines collapse to spaces and the result
// is truncated with an ellipsis.
func PayloadPreview(payload string) string {
	preview := strings.Join(strings.Fields(payload), " ")
	preview = FilterSensitiveValue(preview)
	if r := []rune(preview); len(r) > previewMaxLen {
		preview = string(r[:previewMaxLen]) + "…"
	}
	return preview
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
// This is used to wrap log file writers to ensure sensitive data is never
// written to disk, even if it appears in log messages or field values.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
// All data written through this writer will have sensitive patterns redacted.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer, filtering sensitive data before writing.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	_, err = fw.w.Write([]byte(filtered))
	if err != nil {
		return 0, err
	}
	// Return original length so callers don't think there was a short write
	return len(p), nil
}
