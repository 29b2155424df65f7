package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// OutputPlaceholder is replaced by the target photo path in a camera command.
const OutputPlaceholder = "{output}"

// waitDelay bounds how long a killed camera process may hold its pipes.
const waitDelay = 2 * time.Second

// CommandSource captures by running an external camera program such as
// "libcamera-still -n -o {output}" or "fswebcam --no-banner {output}". When
// no argument contains OutputPlaceholder the path is appended.
type CommandSource struct {
	Args  []string
	Store *Store
}

// NewCommandSource splits command on whitespace.
func NewCommandSource(command string, store *Store) (*CommandSource, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, &CaptureError{Op: "command", Err: errors.New("capture command is empty")}
	}
	return &CommandSource{Args: args, Store: store}, nil
}

func (s *CommandSource) Capture(ctx context.Context) (Photo, error) {
	path, takenAt, err := s.Store.NextPath(".jpg")
	if err != nil {
		return Photo{}, err
	}

	args := expandArgs(s.Args, path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: camera command comes from local configuration
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Debug("running capture command", "command", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		_ = os.Remove(path)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Photo{}, &CaptureError{Op: "command", Err: ctxErr}
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return Photo{}, &CaptureError{Op: "command", Path: args[0], Err: err}
	}

	photo, err := statPhoto(path, takenAt)
	if err != nil {
		return Photo{}, err
	}
	slog.Info("photo captured", "file", photo.Path, "bytes", photo.Size)
	return photo, nil
}

func expandArgs(args []string, path string) []string {
	out := make([]string, 0, len(args)+1)
	substituted := false
	for _, a := range args {
		if strings.Contains(a, OutputPlaceholder) {
			a = strings.ReplaceAll(a, OutputPlaceholder, path)
			substituted = true
		}
		out = append(out, a)
	}
	if !substituted {
		out = append(out, path)
	}
	return out
}
