package interpreter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/r00ster91/wasmos/internal/wasip1"
	"github.com/r00ster91/wasmos/internal/wasm"
	"github.com/r00ster91/wasmos/sys"
)

// call invokes an imported function. Function indices below the import count are imports, so anything else is a
// function defined in the module.
func call(ce *callEngine) error {
	idx, err := ce.readUint32()
	if err != nil {
		return err
	}
	if uint64(idx) >= uint64(len(ce.hostFunctions)) {
		return fmt.Errorf("%w: function[%d]", ErrUnsupportedCall, idx)
	}

	f := ce.hostFunctions[idx]
	if ce.trace {
		ce.logger.Debug("host call", zap.Stringer("func", f))
	}
	switch f {
	case wasip1.ProcExit:
		return procExit(ce)
	case wasip1.FdWrite:
		return fdWrite(ce)
	case wasip1.PollOneoff:
		return pollOneoff(ce)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedCall, f)
}

// procExit ends the run with the popped status. No instruction after the call executes.
//
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#proc_exit
func procExit(ce *callEngine) error {
	rval, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	ce.stop(sys.ExitProcExit, uint32(rval))
	return nil
}

// fdWrite appends a single iovec to the descriptor, without the NUL bytes that pad its end.
//
// # Parameters
//
//   - fd: index into the FileSink. Out of range returns wasip1.ErrnoBadf, and nothing is read or written.
//   - iovs: offset of the iovec, an 8-byte (buf, buf_len) pair of little-endian uint32.
//   - iovsLen: count of iovecs, which must be 1.
//   - resultNwritten: offset to write the count of bytes appended. Out of range fails before anything is appended.
//
// When the FileSink fails to append, the run continues with wasip1.ErrnoNomem.
//
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#fd_write
func fdWrite(ce *callEngine) error {
	resultNwritten, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	iovsLen, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	iovs, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	fd, err := ce.operands.popI32()
	if err != nil {
		return err
	}

	if iovsLen != 1 {
		return fmt.Errorf("%w: iovs_len=%d", ErrUnsupportedIovecCount, uint32(iovsLen))
	}
	if uint64(uint32(fd)) >= uint64(ce.fds.Len()) {
		ce.pushErrno(wasip1.ErrnoBadf)
		return nil
	}

	mem := ce.inst.Memory
	if mem == nil {
		return wasm.ErrNoMemory
	}
	iov, ok := mem.Read(uint32(iovs), wasip1.IovecSize)
	if !ok {
		return fmt.Errorf("%w: iovec at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(iovs))
	}
	offset := binary.LittleEndian.Uint32(iov[wasip1.IovecBufOffset:])
	l := binary.LittleEndian.Uint32(iov[wasip1.IovecBufLenOffset:])
	buf, ok := mem.Read(offset, l)
	if !ok {
		return fmt.Errorf("%w: %d bytes at %d", wasm.ErrOutOfBoundsMemoryAccess, l, offset)
	}
	// Nothing is appended when the count cannot be written back.
	if _, ok = mem.Read(uint32(resultNwritten), 4); !ok {
		return fmt.Errorf("%w: nwritten at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(resultNwritten))
	}

	n, err := ce.fds.Append(uint32(fd), bytes.TrimRight(buf, "\x00"))
	if err != nil {
		ce.logger.Debug("fd_write failed", zap.Int32("fd", fd), zap.Error(err))
		if errors.Is(err, sys.ErrBadDescriptor) {
			ce.pushErrno(wasip1.ErrnoBadf)
		} else {
			ce.pushErrno(wasip1.ErrnoNomem)
		}
		return nil
	}

	if !mem.WriteUint32Le(uint32(resultNwritten), uint32(n)) {
		return fmt.Errorf("%w: nwritten at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(resultNwritten))
	}
	ce.pushErrno(wasip1.ErrnoSuccess)
	return nil
}

// pollOneoff blocks on a single relative clock subscription, then reports it as the only event.
//
// # Parameters
//
//   - in: offset of the subscription (48 bytes).
//   - out: offset to write the event (32 bytes).
//   - nsubscriptions: count of subscriptions, which must be 1.
//   - resultNevents: offset to write the count of events, always 1.
//
// The sleep cannot be interrupted, not even by WithCloseOnContextDone.
//
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#poll_oneoff
func pollOneoff(ce *callEngine) error {
	resultNevents, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	nsubscriptions, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	out, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	in, err := ce.operands.popI32()
	if err != nil {
		return err
	}

	if nsubscriptions != 1 {
		return fmt.Errorf("%w: nsubscriptions=%d", ErrUnsupportedSubscriptionCount, uint32(nsubscriptions))
	}

	mem := ce.inst.Memory
	if mem == nil {
		return wasm.ErrNoMemory
	}
	sub, ok := mem.Read(uint32(in), wasip1.SubscriptionSize)
	if !ok {
		return fmt.Errorf("%w: subscription at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(in))
	}

	eventType := sub[wasip1.SubscriptionTagOffset]
	if eventType != wasip1.EventTypeClock {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, wasip1.EventTypeName(eventType))
	}
	precision := binary.LittleEndian.Uint64(sub[wasip1.SubscriptionClockPrecisionOffset:])
	flags := binary.LittleEndian.Uint16(sub[wasip1.SubscriptionClockFlagsOffset:])
	if precision != 0 || flags != 0 {
		return fmt.Errorf("%w: precision=%d flags=%d", ErrUnsupportedClockSubscription, precision, flags)
	}

	timeout := binary.LittleEndian.Uint64(sub[wasip1.SubscriptionClockTimeoutOffset:])
	if timeout > math.MaxInt64 {
		timeout = math.MaxInt64
	}
	if ce.trace {
		ce.logger.Debug("poll_oneoff sleeping", zap.Duration("timeout", time.Duration(timeout)))
	}
	ce.opts.sleep(time.Duration(timeout))

	event := make([]byte, wasip1.EventSize)
	copy(event[wasip1.EventUserdataOffset:], sub[wasip1.SubscriptionUserdataOffset:wasip1.SubscriptionUserdataOffset+8])
	binary.LittleEndian.PutUint16(event[wasip1.EventErrnoOffset:], uint16(wasip1.ErrnoSuccess))
	event[wasip1.EventTypeOffset] = eventType
	if !mem.Write(uint32(out), event) {
		return fmt.Errorf("%w: event at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(out))
	}
	if !mem.WriteUint32Le(uint32(resultNevents), 1) {
		return fmt.Errorf("%w: nevents at %d", wasm.ErrOutOfBoundsMemoryAccess, uint32(resultNevents))
	}
	ce.pushErrno(wasip1.ErrnoSuccess)
	return nil
}

func (ce *callEngine) pushErrno(errno wasip1.Errno) {
	ce.operands.push(wasm.ValueI32(int32(errno)))
}
