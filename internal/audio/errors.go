package audio

import (
	"errors"
	"fmt"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("audio decode failed")

// ErrFormatMismatch is returned when a WAV container carries an encoding this
// package cannot reinterpret as 16-bit PCM.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// DecodeError reports a malformed or empty audio payload.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(op string, format string, args ...any) error {
	return &DecodeError{Op: op, Err: fmt.Errorf(format, args...)}
}
