package cmd

import (
	"testing"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "handscan", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRootCommandHelp(t *testing.T) {
	isolateConfig(t)

	out, err := executeCommand(t, nil, "--help")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "handwritten notes")
	assert.Contains(t, out.stdout, "Available Commands:")
	assert.Contains(t, out.stdout, "Usage:")
}

func TestRootCommandNoArgsShowsHelp(t *testing.T) {
	isolateConfig(t)

	out, err := executeCommand(t, nil)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	isolateConfig(t)

	out, err := executeCommand(t, nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "handscan dev")
	assert.Contains(t, out.stdout, "commit:")
}

func TestRootCommandSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, expected := range []string{"encode", "decode", "capture", "analyze", "snap", "batch", "pdf", "serve", "config"} {
		assert.True(t, names[expected], "missing subcommand %q", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolateConfig(t)

	_, err := executeCommand(t, nil, "--invalid-flag")
	require.Error(t, err)
	assert.Contains(t, scan.UserMessage(err), "unknown flag")
}

func TestInvalidLogLevelFailsConfig(t *testing.T) {
	isolateConfig(t)
	t.Setenv("HANDSCAN_LOG_LEVEL", "chatty")

	_, err := executeCommand(t, nil, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
