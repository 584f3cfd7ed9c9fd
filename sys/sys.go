// Package sys includes constants and types used by both public and internal APIs.
package sys

import "fmt"

// ExitReason is why a run of the start function stopped without error.
type ExitReason byte

const (
	// ExitEnd means the start function reached its final end instruction.
	ExitEnd ExitReason = iota
	// ExitProcExit means the guest called proc_exit from wasi_snapshot_preview1.
	ExitProcExit
	// ExitUnreachable means the guest executed the unreachable instruction. This runtime treats it as an early, clean
	// exit rather than a trap.
	ExitUnreachable
)

// String implements fmt.Stringer
func (r ExitReason) String() string {
	switch r {
	case ExitEnd:
		return "end"
	case ExitProcExit:
		return "proc_exit"
	case ExitUnreachable:
		return "unreachable"
	}
	return fmt.Sprintf("unknown(%d)", byte(r))
}

// ExitStatus is the outcome of a run that did not fail.
//
// Note: Code is only set by proc_exit. It is reported, not enforced: the caller decides whether to exit the process.
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-proc_exitrval-exitcode
type ExitStatus struct {
	Reason ExitReason
	Code   uint32
}

// String implements fmt.Stringer
func (s ExitStatus) String() string {
	if s.Reason == ExitProcExit {
		return fmt.Sprintf("proc_exit(%d)", s.Code)
	}
	return s.Reason.String()
}
