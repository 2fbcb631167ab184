package engine

import "errors"

// Error kinds surfaced by every engine operation. Callers match them
// with errors.Is; the wrapped message names the failing file and
// operation.
var (
	// ErrNotFound reports a missing source file.
	ErrNotFound = errors.New("source file not found")

	// ErrDecode reports malformed or unsupported audio data.
	ErrDecode = errors.New("audio decode failed")

	// ErrWrite reports an output I/O failure.
	ErrWrite = errors.New("audio write failed")

	// ErrEncode reports a delivery-codec bridge failure.
	ErrEncode = errors.New("delivery encode failed")

	// ErrUnsupportedEffect reports an unknown effect name.
	ErrUnsupportedEffect = errors.New("unsupported effect")

	// ErrInvalidParameter reports a parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")
)
