package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) aPhotoWithTheText(name, text string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(dirOf(path)); err != nil {
		return err
	}
	img := testutil.CreateTestImageWithText(text, testutil.SmallSize.Width, testutil.SmallSize.Height)
	return saveImage(img, path)
}

func (testCtx *TestContext) aFileContaining(name, content string) error {
	path := testCtx.Path(name)
	if err := testutil.EnsureDir(dirOf(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (testCtx *TestContext) anEmptyFile(name string) error {
	return testCtx.aFileContaining(name, "")
}

func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)
	testCtx.LastCommand = command

	parts := splitCommand(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "handscan" {
		parts[0] = testCtx.BinPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: commands come from feature files
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	testCtx.LastDuration = time.Since(start)
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err

	testCtx.LastExitCode = 0
	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %v\nstdout: %s\nstderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastStdout, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nstdout: %s", testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastStdout, expected) {
		return fmt.Errorf("output does not contain %q\nActual output: %s", expected, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBe(expected string) error {
	expected = strings.ReplaceAll(expected, `\n`, "\n")
	if got := strings.TrimSpace(testCtx.LastStdout); got != expected {
		return fmt.Errorf("output is %q, want %q", got, expected)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldBe(expected string) error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected %q", expected)
	}
	lines := strings.Split(strings.TrimSpace(testCtx.LastStderr), "\n")
	if last := lines[len(lines)-1]; last != expected {
		return fmt.Errorf("error is %q, want %q\nstderr: %s", last, expected, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing %q", text)
	}
	if !strings.Contains(strings.ToLower(testCtx.LastStderr), strings.ToLower(text)) {
		return fmt.Errorf("error does not contain %q\nstderr: %s", text, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := parseJSON(testCtx.LastStdout)
	return err
}

func (testCtx *TestContext) theJSONShouldContain(field string) error {
	data, err := parseJSON(testCtx.LastStdout)
	if err != nil {
		return err
	}
	_, err = lookupField(data, field)
	return err
}

func (testCtx *TestContext) theJSONFieldShouldBe(field, expected string) error {
	data, err := parseJSON(testCtx.LastStdout)
	if err != nil {
		return err
	}
	return fieldEquals(data, field, expected)
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s does not exist", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain %q\ncontent: %s", name, expected, string(data))
	}
	return nil
}

func (testCtx *TestContext) theFilesShouldBeIdentical(a, b string) error {
	left, err := os.ReadFile(testCtx.Path(a))
	if err != nil {
		return err
	}
	right, err := os.ReadFile(testCtx.Path(b))
	if err != nil {
		return err
	}
	if !bytes.Equal(left, right) {
		return fmt.Errorf("%s and %s differ (%d vs %d bytes)", a, b, len(left), len(right))
	}
	return nil
}

// RegisterCommonSteps registers file, command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a photo "([^"]*)" with the text "([^"]*)"$`, testCtx.aPhotoWithTheText)
	sc.Step(`^a file "([^"]*)" containing "([^"]*)"$`, testCtx.aFileContaining)
	sc.Step(`^an empty file "([^"]*)"$`, testCtx.anEmptyFile)

	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be "([^"]*)"$`, testCtx.theOutputShouldBe)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should be "([^"]*)"$`, testCtx.theErrorShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the files "([^"]*)" and "([^"]*)" should be identical$`, testCtx.theFilesShouldBeIdentical)
}

// splitCommand splits on whitespace; single quotes group words.
func splitCommand(command string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range command {
		switch {
		case r == '\'':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				parts = append(parts, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		parts = append(parts, current.String())
	}
	return parts
}

func parseJSON(output string) (any, error) {
	output = strings.TrimSpace(output)
	start := strings.IndexAny(output, "{[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON found in output: %s", output)
	}
	var data any
	if err := json.Unmarshal([]byte(output[start:]), &data); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\n%s", err, output)
	}
	return data, nil
}
