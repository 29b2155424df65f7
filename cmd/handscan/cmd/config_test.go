package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func defaultTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	return &cfg
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	isolateConfig(t)
	t.Setenv("HANDSCAN_VISION_API_KEY", "super-secret")
	t.Setenv("HANDSCAN_BATCH_WORKERS", "6")

	out, err := executeCommand(t, nil, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out.stdout, "super-secret")

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out.stdout), &shown))
	assert.Equal(t, "***", shown.Vision.APIKey)
	assert.Equal(t, 6, shown.Batch.Workers)
}

func TestConfigShowUsesConfigFile(t *testing.T) {
	isolateConfig(t)
	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("encoder:\n  max_size_kb: 300\n"), 0o600))

	out, err := executeCommand(t, nil, "--config", file, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "# config file: "+file)

	var shown config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out.stdout), &shown))
	assert.Equal(t, 300, shown.Encoder.MaxSizeKB)
}

func TestConfigInit(t *testing.T) {
	isolateConfig(t)
	file := filepath.Join(t.TempDir(), "conf", "handscan.yaml")

	out, err := executeCommand(t, nil, "config", "init", file)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var written config.Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, config.DefaultConfig(), written)

	_, err = executeCommand(t, nil, "config", "init", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCommand(t, nil, "config", "init", file, "--force")
	require.NoError(t, err)
}

func TestConfigPaths(t *testing.T) {
	isolateConfig(t)

	out, err := executeCommand(t, nil, "config", "paths")
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "/etc/handscan")
}
