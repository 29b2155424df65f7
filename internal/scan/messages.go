package scan

import (
	"context"
	"errors"

	"github.com/MeKo-Tech/handscan/internal/capture"
	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/MeKo-Tech/handscan/internal/vision"
)

// User-visible messages.
const (
	NoTextMessage           = "No text detected"
	NoCaptureMessage        = "Please capture an image first"
	CancelledMessage        = "Analysis cancelled"
	PermissionDeniedMessage = "Permissions not granted by the user."
	AnalyzingMessage        = "Analyzing handwriting..."
)

// UserMessage maps an error from any stage to the text shown to the user.
// A RemoteError shows the service's message verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		encErr     *encoder.EncodeError
		decErr     *encoder.DecodeError
		remoteErr  *vision.RemoteError
		captureErr *capture.CaptureError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return CancelledMessage
	case errors.Is(err, vision.ErrNoResultFound):
		return NoTextMessage
	case errors.Is(err, capture.ErrNoCapture):
		return NoCaptureMessage
	case errors.Is(err, capture.ErrPermissionDenied):
		return PermissionDeniedMessage
	case errors.As(err, &remoteErr):
		return "Error: " + remoteErr.Message
	case errors.As(err, &encErr):
		if encErr.Kind == encoder.IOFailure {
			return "Failed to encode image: " + causeText(encErr.Err)
		}
		return "Invalid image data: " + causeText(encErr.Err)
	case errors.As(err, &decErr):
		return "Invalid image data: " + causeText(decErr.Err)
	case errors.As(err, &captureErr):
		return "Photo capture failed: " + causeText(captureErr.Err)
	default:
		return "Error: " + err.Error()
	}
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// IsNoText reports whether err is the neutral "nothing detected" outcome.
func IsNoText(err error) bool {
	return errors.Is(err, vision.ErrNoResultFound)
}
