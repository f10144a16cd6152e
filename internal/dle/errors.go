package dle

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall is returned when the output does not fit the
	// destination buffer. Retrying with a larger buffer may succeed.
	ErrBufferTooSmall = errors.New("dle: output buffer too small")

	// ErrMissingStartMarker means the input does not begin with the mode's
	// start marker.
	ErrMissingStartMarker = errors.New("dle: missing start marker")

	// ErrMissingEndMarker means the input ended before the end marker.
	ErrMissingEndMarker = errors.New("dle: missing end marker")

	// ErrTruncatedFrame means the input ended where another byte is needed
	// to classify what came before it. More input may complete the frame.
	ErrTruncatedFrame = errors.New("dle: truncated frame")

	// ErrInvalidEscapeSequence means a DLE was followed by a byte that is not
	// a valid escape.
	ErrInvalidEscapeSequence = errors.New("dle: invalid escape sequence")

	// ErrUnexpectedStartMarker means a DLE-STX appeared inside a non-escaped
	// frame.
	ErrUnexpectedStartMarker = errors.New("dle: unexpected start marker")

	// ErrTrailingData is returned by a Codec with RejectTrailing set when
	// bytes follow the end marker.
	ErrTrailingData = errors.New("dle: trailing data after frame")

	// ErrInvalidMode is returned for a Mode value other than Escaped or
	// NonEscaped.
	ErrInvalidMode = errors.New("dle: invalid mode")
)

// DecodeError records where in the input a decode failed.
type DecodeError struct {
	// Offset is the input index at which the problem was detected. For
	// escape problems it is the index of the DLE.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func errAt(offset int, err error) error {
	return &DecodeError{Offset: offset, Err: err}
}
