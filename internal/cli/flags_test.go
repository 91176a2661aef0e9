package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codingwatching/companion/internal/errors"
	"github.com/codingwatching/companion/internal/testutil"
)

func TestExitCodes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitError)
	assert.Equal(t, 2, ExitInvalidInput)
}

func TestGlobalFlags_Defaults(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	assert.Equal(t, OutputText, flags.Output)
	assert.False(t, flags.Verbose)
	assert.False(t, flags.Quiet)
}

func TestAddGlobalFlags(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	outputFlag := cmd.PersistentFlags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
	assert.Equal(t, OutputText, outputFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	quietFlag := cmd.PersistentFlags().Lookup("quiet")
	require.NotNil(t, quietFlag)
	assert.Equal(t, "q", quietFlag.Shorthand)
	assert.Equal(t, "false", quietFlag.DefValue)
}

func TestAddGlobalFlags_ParsesCorrectly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		args            []string
		expectedOutput  string
		expectedVerbose bool
		expectedQuiet   bool
	}{
		{
			name:           "default values",
			args:           []string{},
			expectedOutput: OutputText,
		},
		{
			name:           "output json",
			args:           []string{"--output", "json"},
			expectedOutput: OutputJSON,
		},
		{
			name:           "output shorthand",
			args:           []string{"-o", "json"},
			expectedOutput: OutputJSON,
		},
		{
			name:            "verbose shorthand",
			args:            []string{"-v"},
			expectedOutput:  OutputText,
			expectedVerbose: true,
		},
		{
			name:           "quiet shorthand",
			args:           []string{"-q"},
			expectedOutput: OutputText,
			expectedQuiet:  true,
		},
		{
			name:            "combined flags",
			args:            []string{"-o", "json", "-v"},
			expectedOutput:  OutputJSON,
			expectedVerbose: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flags := &GlobalFlags{}
			cmd := &cobra.Command{
				Use: "test",
				RunE: func(_ *cobra.Command, _ []string) error {
					return nil
				},
			}
			AddGlobalFlags(cmd, flags)

			cmd.SetArgs(tc.args)
			err := cmd.Execute()
			require.NoError(t, err)

			assert.Equal(t, tc.expectedOutput, flags.Output)
			assert.Equal(t, tc.expectedVerbose, flags.Verbose)
			assert.Equal(t, tc.expectedQuiet, flags.Quiet)
		})
	}
}

func TestAddGlobalFlags_VerboseQuietExclusive(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}
	AddGlobalFlags(cmd, flags)

	cmd.SetArgs([]string{"-v", "-q"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestBindGlobalFlags(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	AddGlobalFlags(cmd, flags)

	err := BindGlobalFlags(v, cmd)
	require.NoError(t, err)

	require.NoError(t, cmd.PersistentFlags().Set("output", "json"))
	assert.Equal(t, "json", v.GetString("output"))
}

func TestValidOutputFormats(t *testing.T) {
	t.Parallel()

	formats := ValidOutputFormats()
	assert.Len(t, formats, 2)
	assert.Contains(t, formats, OutputText)
	assert.Contains(t, formats, OutputJSON)
}

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		expected bool
	}{
		{"text is valid", OutputText, true},
		{"json is valid", OutputJSON, true},
		{"yaml is invalid", "yaml", false},
		{"empty is invalid", "", false},
		{"uppercase JSON is invalid", "JSON", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, IsValidOutputFormat(tc.format))
		})
	}
}

//nolint:err113 // Test cases intentionally use dynamic errors to simulate Cobra error messages
func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{
			name:         "nil error returns success",
			err:          nil,
			expectedCode: ExitSuccess,
		},
		{
			name:         "ErrInvalidOutputFormat returns invalid input",
			err:          errors.ErrInvalidOutputFormat,
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "wrapped ErrInvalidOutputFormat returns invalid input",
			err:          fmt.Errorf("validation failed: %w", errors.ErrInvalidOutputFormat),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "ErrInvalidName returns invalid input",
			err:          fmt.Errorf("team name 'a/b' %w", errors.ErrInvalidName),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "ErrEmptyValue returns invalid input",
			err:          fmt.Errorf("message text %w", errors.ErrEmptyValue),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "ErrValueOutOfRange returns invalid input",
			err:          fmt.Errorf("timeout %w", errors.ErrValueOutOfRange),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "ErrTeamNotFound returns error code",
			err:          fmt.Errorf("team 'ops' %w", errors.ErrTeamNotFound),
			expectedCode: ExitError,
		},
		{
			name:         "ErrReceiveTimeout returns error code",
			err:          fmt.Errorf("no reply: %w", errors.ErrReceiveTimeout),
			expectedCode: ExitError,
		},
		{
			name:         "unknown flag error returns invalid input",
			err:          stderrors.New("unknown flag: --foo"),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "unknown shorthand flag error returns invalid input",
			err:          stderrors.New("unknown shorthand flag: 'x'"),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "flag needs argument error returns invalid input",
			err:          stderrors.New("flag needs an argument: --output"),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "mutually exclusive flags error returns invalid input",
			err:          stderrors.New("if any flags in the group [verbose quiet] are set none of the others can be"),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "unknown command error returns invalid input",
			err:          stderrors.New(`unknown command "foo"`),
			expectedCode: ExitInvalidInput,
		},
		{
			name:         "generic error returns error code",
			err:          testutil.ErrMockUnhandled,
			expectedCode: ExitError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expectedCode, ExitCodeForError(tc.err))
		})
	}
}

func TestIsInvalidInputError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		errMsg   string
		expected bool
	}{
		{"unknown flag", "unknown flag: --foo", true},
		{"unknown shorthand", "unknown shorthand flag: 'x'", true},
		{"flag needs argument", "flag needs an argument: --output", true},
		{"invalid argument", "invalid argument \"foo\"", true},
		{"mutually exclusive", "if any flags in the group [a b]", true},
		{"required flag", "required flag \"--team\" not set", true},
		{"unknown command", "unknown command \"bar\"", true},
		{"generic error", "something went wrong", false},
		{"empty message", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, isInvalidInputError(tc.errMsg))
		})
	}
}
