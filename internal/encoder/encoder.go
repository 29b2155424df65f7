// Package encoder converts photo bytes into the transport-safe payload sent to
// the OCR service and back again. A payload is standard base64 with padding
// and no line wrapping.
//
// Every function is a pure single-shot call: nothing is cached between calls
// and all functions are safe for concurrent use.
package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var payloadEncoding = base64.StdEncoding

// Encode returns the payload for data. An empty slice yields "".
func Encode(data []byte) string {
	return payloadEncoding.EncodeToString(data)
}

// Decode is the inverse of Encode. Any character outside the standard
// alphabet, bad padding or a truncated final quantum is reported as a
// MalformedInput DecodeError.
func Decode(payload string) ([]byte, error) {
	// The decoder skips CR and LF even in strict mode.
	if i := strings.IndexAny(payload, "\r\n"); i >= 0 {
		return nil, &DecodeError{Kind: MalformedInput, Err: base64.CorruptInputError(i)}
	}
	data, err := payloadEncoding.Strict().DecodeString(payload)
	if err != nil {
		return nil, &DecodeError{Kind: MalformedInput, Err: err}
	}
	return data, nil
}

// EstimateKB returns the decoded size in kilobytes implied by a payload of
// payloadLen characters: floor(floor(payloadLen*3/4)/1024).
func EstimateKB(payloadLen int) int {
	if payloadLen <= 0 {
		return 0
	}
	estimatedBytes := payloadLen * 3 / 4
	return estimatedBytes / 1024
}

// ReadFile reads the whole file at path. The number of bytes read must match
// the size the file reported when it was opened; a file that shrank or grew
// in between fails with an IOFailure wrapping ErrShortRead.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading a user-selected photo is the point
	if err != nil {
		return nil, ioFailure("open", path, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, ioFailure("stat", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, ioFailure("stat", path, errors.New("not a regular file"))
	}

	size := fi.Size()
	buf := make([]byte, size)
	n, err := io.ReadFull(f, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ioFailure("read", path, fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, n, size))
		}
		return nil, ioFailure("read", path, err)
	}

	// Anything past the reported size means the file changed underneath us.
	var probe [1]byte
	m, err := f.Read(probe[:])
	if m > 0 {
		return nil, ioFailure("read", path, fmt.Errorf("%w: file grew past %d bytes", ErrShortRead, size))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioFailure("read", path, err)
	}

	return buf, nil
}

// EncodeFile reads the file at path in full and returns its payload.
func EncodeFile(path string) (string, error) {
	data, err := ReadFile(path)
	if err != nil {
		return "", err
	}
	return Encode(data), nil
}
