package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEnv returns a getenv func over a fixed map, isolating tests from the
// process environment.
func mapEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// execute runs the root command with args and returns stdout, stderr and the
// command error.
func execute(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := newRootCommand(&RootOptions{Getenv: mapEnv(env)})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "todos", cmd.Use)
	assert.Contains(t, cmd.Long, "multi-list todo manager")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "bootstrap", "lists", "check"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"serve", []string{"addr", "backend"}},
		{"bootstrap", []string{"db"}},
		{"lists", []string{"db", "todos"}},
		{"check", []string{"filter", "golden", "update"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := NewRootCommand().Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, nil, "--format", "yaml", "bootstrap", "--db", t.TempDir()+"/todos.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}

// executeExit runs the root command through executeRoot and returns stdout,
// stderr and the exit code.
func executeExit(t *testing.T, env map[string]string, args ...string) (string, string, int) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	opts := &RootOptions{Getenv: mapEnv(env)}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	code := executeRoot(cmd, opts)
	return out.String(), errOut.String(), code
}

func TestExecuteRoot_JSONErrorEnvelope(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "dir", "x.db")

	out, _, code := executeExit(t, nil, "--format", "json", "bootstrap", "--db", dbPath)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCommand, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "failed to open database")
}

func TestExecuteRoot_TextError(t *testing.T) {
	out, errOut, code := executeExit(t, nil, "serve", "--backend", "redis")
	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Error [E_COMMAND]: failed to load config")
	assert.NotContains(t, errOut, "Error: ")
}

func TestExecuteRoot_ReportedErrorsAreNotRepeated(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "fail.yaml", failingScenario)

	out, _, code := executeExit(t, nil, "--format", "json", "check", dir)
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_CHECK_FAILED", resp.Error.Code)
}

func TestExecuteRoot_Success(t *testing.T) {
	out, errOut, code := executeExit(t, nil, "bootstrap", "--db", filepath.Join(t.TempDir(), "todos.db"))
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Schema ready (sqlite)")
	assert.NotContains(t, errOut, "Error")
}

func TestSetupLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	setupLogging(&buf, false)
	slog.Debug("hidden")
	slog.Info("shown", "backend", "session")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown backend=session")

	buf.Reset()
	setupLogging(&buf, true)
	slog.Debug("details")
	assert.Contains(t, buf.String(), "level=DEBUG msg=details")
}
