// Package support holds the godog step definitions for the handscan CLI.
package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	BinPath string

	// Command execution state
	LastCommand  string
	LastStdout   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir string
	EnvVars []string

	// Remote OCR stand-in shared by the CLI and the in-process server.
	Vision *FakeVision

	// HTTP server state
	HTTPServer         *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
}

// NewTestContext creates a context whose commands run inside a fresh
// temporary directory that also serves as $HOME.
func NewTestContext(binPath string) (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "handscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	testCtx := &TestContext{
		BinPath: binPath,
		TempDir: tempDir,
		Vision:  NewFakeVision(),
	}
	testCtx.AddEnvVar("HOME", tempDir)
	testCtx.AddEnvVar("XDG_CONFIG_HOME", tempDir)
	testCtx.AddEnvVar("HANDSCAN_VISION_BASE_URL", testCtx.Vision.URL())
	testCtx.AddEnvVar("HANDSCAN_VISION_API_KEY", "integration-key")
	testCtx.AddEnvVar("HANDSCAN_LOG_LEVEL", "warn")
	return testCtx, nil
}

// Cleanup stops servers and removes the scenario's files.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	testCtx.Vision.Close()

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar sets an environment variable for command execution. Later
// values override earlier ones.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// Path resolves name inside the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substituteCommandVariables expands {tmp} to the scenario directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}
