package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dyluth/coda/internal/printer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCoda executes the real root command with args and returns what it
// wrote to stdout and stderr.
func runCoda(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	restore := printer.SetOutput(&out, &errOut)
	noColor := color.NoColor
	color.NoColor = true
	defer func() {
		restore()
		color.NoColor = noColor
	}()

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coda.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, _, err := runCoda(t)
	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:", "Help should be displayed")
	assert.Contains(t, out, "coda", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, _, err := runCoda(t, "--unknown-flag", "value")
	require.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag")
}

// TestRootCommand_RejectsSubcommandFlags tests that flags meant for
// subcommands are rejected when passed to the root command
func TestRootCommand_RejectsSubcommandFlags(t *testing.T) {
	_, _, err := runCoda(t, "--dir", "/tmp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	out, _, err := runCoda(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3 (commit: abc123, built: 2026-01-01)")
}

func TestRootCommand_Config(t *testing.T) {
	t.Run("explicit missing config is an error", func(t *testing.T) {
		_, errOut, err := runCoda(t, "--config", filepath.Join(t.TempDir(), "nope.yml"), "name", "x")
		require.Error(t, err)
		assert.Equal(t, "configuration error", err.Error())
		assert.Contains(t, errOut, "failed to read config")
	})

	t.Run("invalid config is an error", func(t *testing.T) {
		path := writeConfigFile(t, `version: "0.9"`)
		_, _, err := runCoda(t, "--config", path, "name", "x")
		require.Error(t, err)
		assert.Equal(t, "configuration error", err.Error())
	})

	t.Run("bad log level", func(t *testing.T) {
		_, _, err := runCoda(t, "--log-level", "loud", "name", "x")
		require.Error(t, err)
		assert.Equal(t, "logging setup failed", err.Error())
	})

	t.Run("debug logging goes to stderr", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "study.csv")
		_, errOut, err := runCoda(t, "--log-level", "debug", "column", "add", file, "trial", "NOMINAL")
		require.NoError(t, err)
		assert.Contains(t, errOut, "component=save")
	})
}

func TestNameCommand(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out, _, err := runCoda(t, "name", "MyStudy")
		require.NoError(t, err)
		assert.Equal(t, "MyStudy-ca7f43ae21.csv\n", out)
	})

	t.Run("from config", func(t *testing.T) {
		path := writeConfigFile(t, "version: \"1.0\"\nproject:\n  name: \"study 2\"\n")
		out, _, err := runCoda(t, "--config", path, "name")
		require.NoError(t, err)
		assert.Equal(t, "study 2-ef2ebb4073.csv\n", out)
	})

	t.Run("no name anywhere", func(t *testing.T) {
		_, _, err := runCoda(t, "name")
		require.Error(t, err)
		assert.Equal(t, "no project name", err.Error())
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, _, err := runCoda(t, "name", "a", "b")
		assert.Error(t, err)
	})
}
