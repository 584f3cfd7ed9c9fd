// Package wasip1 defines the subset of the wasi_snapshot_preview1 ABI a guest may import.
//
// The surface is a closed set: adding a host function means adding a HostFunction value, not registering a callback.
//
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md
package wasip1

import "fmt"

// InternalModuleName is the module name guests import the host functions from.
const InternalModuleName = "wasi_snapshot_preview1"

const (
	ProcExitName   = "proc_exit"
	FdWriteName    = "fd_write"
	PollOneoffName = "poll_oneoff"
)

// HostFunction is one of the host functions a guest can call.
type HostFunction byte

const (
	// ProcExit is proc_exit(rval: i32). It does not return to the guest.
	ProcExit HostFunction = iota + 1
	// FdWrite is fd_write(fd: i32, iovs: i32, iovs_len: i32, result.nwritten: i32) -> errno.
	FdWrite
	// PollOneoff is poll_oneoff(in: i32, out: i32, nsubscriptions: i32, result.nevents: i32) -> errno.
	PollOneoff
)

// LookupHostFunction returns the HostFunction imported as name, or false if the runtime does not provide it.
func LookupHostFunction(name string) (HostFunction, bool) {
	switch name {
	case ProcExitName:
		return ProcExit, true
	case FdWriteName:
		return FdWrite, true
	case PollOneoffName:
		return PollOneoff, true
	}
	return 0, false
}

// Name returns the name the function is imported by.
func (f HostFunction) Name() string {
	switch f {
	case ProcExit:
		return ProcExitName
	case FdWrite:
		return FdWriteName
	case PollOneoff:
		return PollOneoffName
	}
	return fmt.Sprintf("unknown(%d)", byte(f))
}

// ParamCount is the count of i32 operands the function pops.
func (f HostFunction) ParamCount() int {
	switch f {
	case ProcExit:
		return 1
	case FdWrite, PollOneoff:
		return 4
	}
	return 0
}

// ResultCount is the count of i32 results the function pushes: the errno, when it returns at all.
func (f HostFunction) ResultCount() int {
	switch f {
	case FdWrite, PollOneoff:
		return 1
	}
	return 0
}

// String implements fmt.Stringer
func (f HostFunction) String() string {
	return InternalModuleName + "." + f.Name()
}
