package cmd

import (
	"bytes"
	"io"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/testutil"
)

type cmdOutput struct {
	stdout string
	stderr string
}

// executeCommand runs a fresh command tree with args.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (cmdOutput, error) {
	t.Helper()

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.Execute()
	return cmdOutput{stdout: stdout.String(), stderr: stderr.String()}, err
}

// isolateConfig keeps config files from the developer's machine out of
// the test and clears HANDSCAN_* settings.
func isolateConfig(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HANDSCAN_VISION_API_KEY", "")
	t.Setenv("HANDSCAN_VISION_BASE_URL", "")
	t.Setenv("HANDSCAN_ENCODER_MAX_SIZE_KB", "")
	t.Setenv("HANDSCAN_CAPTURE_OUTPUT_DIR", "")
	return home
}

// withFakeVision points the CLI at a fake annotate endpoint.
func withFakeVision(t *testing.T, status int, body string) *testutil.FakeVision {
	t.Helper()

	isolateConfig(t)
	fv := testutil.NewFakeVision(t, status, body)
	t.Setenv("HANDSCAN_VISION_BASE_URL", fv.URL)
	t.Setenv("HANDSCAN_VISION_API_KEY", "test-key")
	return fv
}
