package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout, stderr and the error.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "instrq", cmd.Use)
	assert.Contains(t, cmd.Long, "InstructionMessage")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"ingest", "check", "scenario", "journal"}

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

func TestFormatValidation(t *testing.T) {
	_, _, err := execute(t, "", "--format", "yaml", "check")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")

	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("text"))
	assert.False(t, isValidFormat("JSON"))
}

func TestConfigFile(t *testing.T) {
	cfg := writeFile(t, "instrq.toml", "[output]\nformat = \"json\"\n")

	out, _, err := execute(t, validA, "--config", cfg, "check")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)

	// An explicit flag beats the file.
	out, _, err = execute(t, validA, "--config", cfg, "--format", "text", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "1 line(s) valid")
}

func TestConfigFile_Invalid(t *testing.T) {
	cfg := writeFile(t, "instrq.toml", "[log]\nlevel = \"loud\"\n")

	_, _, err := execute(t, validA, "--config", cfg, "check")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "load config")
}

func TestVerboseLogsToStderr(t *testing.T) {
	out, errOut, err := execute(t, validA+badProduct, "--verbose", "ingest")
	require.Error(t, err)
	assert.NotContains(t, out, "instruction rejected")
	assert.Contains(t, errOut, "instruction rejected")
	assert.Contains(t, errOut, "instruction accepted")
}
