package wasip1

import "fmt"

// Errno is neither uint16 nor an alias for parity with wasm.ValueType.
type Errno = uint32

// Note: Below prefers POSIX symbol names over WASI ones, even if the docs are from WASI.
// Only the codes this runtime returns are defined.
// See https://linux.die.net/man/3/errno
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#variants-1
const (
	// ErrnoSuccess No error occurred. System call completed successfully.
	ErrnoSuccess Errno = 0
	// ErrnoBadf Bad file descriptor.
	ErrnoBadf Errno = 8
	// ErrnoFault Bad address.
	ErrnoFault Errno = 21
	// ErrnoInval Invalid argument.
	ErrnoInval Errno = 28
	// ErrnoNomem Not enough space.
	ErrnoNomem Errno = 48
	// ErrnoNotsup Not supported, or operation not supported on socket.
	ErrnoNotsup Errno = 58
)

// ErrnoName returns the POSIX error code name, except ErrnoSuccess, which is not an error. Ex. ErrnoBadf -> "EBADF"
func ErrnoName(errno Errno) string {
	switch errno {
	case ErrnoSuccess:
		return "ESUCCESS"
	case ErrnoBadf:
		return "EBADF"
	case ErrnoFault:
		return "EFAULT"
	case ErrnoInval:
		return "EINVAL"
	case ErrnoNomem:
		return "ENOMEM"
	case ErrnoNotsup:
		return "ENOTSUP"
	}
	return fmt.Sprintf("errno(%d)", errno)
}
