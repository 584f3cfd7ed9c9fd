package interpreter

import "errors"

var (
	// ErrUnsupportedCall is returned by call on a function defined in the module: only imports can be called.
	ErrUnsupportedCall = errors.New("only imported functions can be called")
	// ErrUnimplementedBlockType is returned for a block or loop whose type is not empty.
	ErrUnimplementedBlockType = errors.New("unimplemented block type")
	// ErrUnsupportedStartSignature is returned when the start function has parameters or results.
	ErrUnsupportedStartSignature = errors.New("start function must have no parameters and no results")
	// ErrTruncatedInstruction is returned when the body ends in the middle of an instruction.
	ErrTruncatedInstruction = errors.New("truncated instruction")

	ErrUnsupportedIovecCount        = errors.New("fd_write: only one iovec is supported")
	ErrUnsupportedSubscriptionCount = errors.New("poll_oneoff: only one subscription is supported")
	ErrUnsupportedClockSubscription = errors.New("poll_oneoff: clock precision and flags must be zero")
	ErrUnsupportedEventType         = errors.New("poll_oneoff: unsupported event type")
)
