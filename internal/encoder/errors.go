package encoder

import (
	"errors"
	"fmt"
)

// Kind classifies encoder failures.
type Kind int

const (
	// IOFailure means the source file could not be opened or read in full.
	IOFailure Kind = iota + 1
	// MalformedInput means a payload is not valid standard base64.
	MalformedInput
	// InvalidImage means the pixel codec rejected the image.
	InvalidImage
)

func (k Kind) String() string {
	switch k {
	case IOFailure:
		return "io failure"
	case MalformedInput:
		return "malformed input"
	case InvalidImage:
		return "invalid image"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against EncodeError and DecodeError kinds.
var (
	ErrIOFailure      = errors.New("encoder: io failure")
	ErrMalformedInput = errors.New("encoder: malformed input")
	ErrInvalidImage   = errors.New("encoder: invalid image")

	// ErrShortRead is wrapped by an IOFailure when the bytes read differ
	// from the size the file reported when it was opened.
	ErrShortRead = errors.New("read length does not match file size")
)

func sentinelFor(k Kind) error {
	switch k {
	case IOFailure:
		return ErrIOFailure
	case MalformedInput:
		return ErrMalformedInput
	case InvalidImage:
		return ErrInvalidImage
	default:
		return nil
	}
}

// EncodeError reports a failure to produce a payload.
type EncodeError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encode %s (%s) %s: %v", e.Op, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("encode %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinel as well as the wrapped cause.
func (e *EncodeError) Is(target error) bool {
	s := sentinelFor(e.Kind)
	return s != nil && target == s
}

// DecodeError reports a payload that could not be turned back into bytes.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode (%s): %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	s := sentinelFor(e.Kind)
	return s != nil && target == s
}

func ioFailure(op, path string, err error) error {
	return &EncodeError{Kind: IOFailure, Op: op, Path: path, Err: err}
}
