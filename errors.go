package console

import "errors"

var (
	// ErrInvalidArgument is returned by ReadLine for a nil buffer or context.
	ErrInvalidArgument = errors.New("console: invalid argument")
	// ErrStorageInsufficient is returned by ReadLine when the completed line
	// did not fit in the caller's buffer. The truncated prefix is still
	// delivered.
	ErrStorageInsufficient = errors.New("console: storage insufficient")
	// ErrInit reports a failed early or late device initialization.
	ErrInit = errors.New("console: initialization failed")
	// ErrNoTransmitter is passed to the halt hook when output is flushed
	// before the driver installed its transmit primitive.
	ErrNoTransmitter = errors.New("console: putc not initialized")
)
