package interpreter

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/r00ster91/wasmos/internal/wasip1"
	"github.com/r00ster91/wasmos/internal/wasm"
	"github.com/r00ster91/wasmos/sys"
)

// fdWriteModule stores the iovec (16, payloadLen) at 0, then writes it to fd with nwritten at 8. The errno is saved
// to global 0.
func fdWriteModule(fd int32, payload []byte) *wasm.Module {
	m := newModule([]string{wasip1.FdWriteName},
		i32Const(0), i32Const(16), op(wasm.OpcodeI32Store), memarg(0),
		i32Const(4), i32Const(int32(len(payload))), op(wasm.OpcodeI32Store), memarg(0),
		i32Const(fd), i32Const(0), i32Const(1), i32Const(8), op(wasm.OpcodeCall, 0),
		op(wasm.OpcodeGlobalSet, 0),
		op(wasm.OpcodeEnd))
	m.MemorySection = []*wasm.Memory{oneFixedPageMemory}
	m.GlobalSection = []*wasm.Global{mutableGlobal(-1)}
	m.DataSection = []*wasm.DataSegment{{OffsetExpression: constExpr(16), Init: payload}}
	return m
}

func TestFdWrite(t *testing.T) {
	fds := sys.NewFileTable(sys.DefaultDescriptors)
	payload := []byte("hello world!\x00\x00\x00\x00")

	status, inst, err := run(t, fdWriteModule(1, payload), fds)
	require.NoError(t, err)
	require.Equal(t, sys.ExitStatus{Reason: sys.ExitEnd}, status)

	require.Equal(t, "hello world!", string(fds.Bytes(1)))
	require.Zero(t, fds.Size(2))
	nwritten, _ := inst.Memory.ReadUint32Le(8)
	require.Equal(t, uint32(12), nwritten)
	require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoSuccess)), inst.Globals[0].Get())
}

func TestFdWrite_Appends(t *testing.T) {
	fds := sys.NewFileTable(sys.DefaultDescriptors)
	_, err := fds.Append(2, []byte("a"))
	require.NoError(t, err)

	_, _, err = run(t, fdWriteModule(2, []byte("bc")), fds)
	require.NoError(t, err)
	require.Equal(t, "abc", string(fds.Bytes(2)))
}

func TestFdWrite_OnlyNUL(t *testing.T) {
	fds := sys.NewFileTable(sys.DefaultDescriptors)

	_, inst, err := run(t, fdWriteModule(1, []byte{0, 0}), fds)
	require.NoError(t, err)
	require.Zero(t, fds.Size(1))
	nwritten, _ := inst.Memory.ReadUint32Le(8)
	require.Zero(t, nwritten)
	require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoSuccess)), inst.Globals[0].Get())
}

func TestFdWrite_BadDescriptor(t *testing.T) {
	fds := sys.NewFileTable(sys.DefaultDescriptors)

	_, inst, err := run(t, fdWriteModule(3, []byte("hi")), fds)
	require.NoError(t, err)
	nwritten, _ := inst.Memory.ReadUint32Le(8)
	require.Zero(t, nwritten)
	require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoBadf)), inst.Globals[0].Get())
}

func TestFdWrite_BadDescriptorWithoutMemory(t *testing.T) {
	m := newModule([]string{wasip1.FdWriteName},
		i32Const(-1), i32Const(0), i32Const(1), i32Const(8), op(wasm.OpcodeCall, 0),
		op(wasm.OpcodeGlobalSet, 0),
		op(wasm.OpcodeEnd))
	m.GlobalSection = []*wasm.Global{mutableGlobal(-1)}

	_, inst, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors))
	require.NoError(t, err)
	require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoBadf)), inst.Globals[0].Get())
}

type failingSink struct{}

func (failingSink) Len() int { return sys.DefaultDescriptors }

func (failingSink) Append(uint32, []byte) (int, error) { return 0, errors.New("disk full") }

func TestFdWrite_AppendFails(t *testing.T) {
	tests := []struct {
		name string
		fds  FileSink
	}{
		{name: "failing sink", fds: failingSink{}},
		{name: "limit exceeded", fds: sys.NewLimitedFileTable(sys.DefaultDescriptors, 4)},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			status, inst, err := run(t, fdWriteModule(1, []byte("hello")), tc.fds)
			require.NoError(t, err)
			require.Equal(t, sys.ExitStatus{Reason: sys.ExitEnd}, status)
			require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoNomem)), inst.Globals[0].Get())
		})
	}
}

func TestFdWrite_Errors(t *testing.T) {
	t.Run("iovs_len", func(t *testing.T) {
		m := newModule([]string{wasip1.FdWriteName},
			i32Const(1), i32Const(0), i32Const(2), i32Const(8), op(wasm.OpcodeCall, 0),
			op(wasm.OpcodeEnd))
		m.MemorySection = []*wasm.Memory{oneFixedPageMemory}

		_, _, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors))
		require.ErrorIs(t, err, ErrUnsupportedIovecCount)
	})

	t.Run("no memory", func(t *testing.T) {
		m := newModule([]string{wasip1.FdWriteName},
			i32Const(1), i32Const(0), i32Const(1), i32Const(8), op(wasm.OpcodeCall, 0),
			op(wasm.OpcodeEnd))

		_, _, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors))
		require.ErrorIs(t, err, wasm.ErrNoMemory)
	})

	t.Run("buffer out of bounds", func(t *testing.T) {
		fds := sys.NewFileTable(sys.DefaultDescriptors)
		m := fdWriteModule(1, []byte("hi"))
		m.DataSection = append(m.DataSection, &wasm.DataSegment{
			OffsetExpression: constExpr(0), Init: []byte{0xf0, 0xff, 0, 0, 0x20, 0, 0, 0},
		})
		// Replace the stores of the iovec, so the data segment above is used.
		m.CodeSection[0].Body = concat(
			i32Const(1), i32Const(0), i32Const(1), i32Const(8), op(wasm.OpcodeCall, 0),
			op(wasm.OpcodeEnd))

		_, _, err := run(t, m, fds)
		require.ErrorIs(t, err, wasm.ErrOutOfBoundsMemoryAccess)
		require.Zero(t, fds.Size(1))
	})

	for _, tt := range []struct {
		name     string
		nwritten int32
		message  string
	}{
		{name: "nwritten out of bounds", nwritten: -1, message: "out of bounds memory access: nwritten at 4294967295"},
		{name: "nwritten past the end", nwritten: 65533, message: "out of bounds memory access: nwritten at 65533"},
	} {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			fds := sys.NewFileTable(sys.DefaultDescriptors)
			m := fdWriteModule(1, []byte("hi"))
			m.CodeSection[0].Body = concat(
				i32Const(0), i32Const(16), op(wasm.OpcodeI32Store), memarg(0),
				i32Const(4), i32Const(2), op(wasm.OpcodeI32Store), memarg(0),
				i32Const(1), i32Const(0), i32Const(1), i32Const(tc.nwritten), op(wasm.OpcodeCall, 0),
				op(wasm.OpcodeEnd))

			_, _, err := run(t, m, fds)
			require.ErrorIs(t, err, wasm.ErrOutOfBoundsMemoryAccess)
			require.Contains(t, err.Error(), tc.message)
			require.Zero(t, fds.Size(1))
		})
	}

	t.Run("underflow", func(t *testing.T) {
		m := newModule([]string{wasip1.FdWriteName}, i32Const(1), op(wasm.OpcodeCall, 0, wasm.OpcodeEnd))

		_, _, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors))
		require.ErrorIs(t, err, wasm.ErrStackUnderflow)
	})
}

// subscription returns a clock subscription, with the given tag, timeout and precision.
func subscription(userdata uint64, tag byte, timeout, precision uint64) []byte {
	sub := make([]byte, wasip1.SubscriptionSize)
	binary.LittleEndian.PutUint64(sub[wasip1.SubscriptionUserdataOffset:], userdata)
	sub[wasip1.SubscriptionTagOffset] = tag
	binary.LittleEndian.PutUint64(sub[wasip1.SubscriptionClockTimeoutOffset:], timeout)
	binary.LittleEndian.PutUint64(sub[wasip1.SubscriptionClockPrecisionOffset:], precision)
	return sub
}

// pollOneoffModule polls the subscription stored at 0, with the event written at 64 and nevents at 128. The errno is
// saved to global 0.
func pollOneoffModule(nsubscriptions int32, sub []byte) *wasm.Module {
	m := newModule([]string{wasip1.PollOneoffName},
		i32Const(0), i32Const(64), i32Const(nsubscriptions), i32Const(128), op(wasm.OpcodeCall, 0),
		op(wasm.OpcodeGlobalSet, 0),
		op(wasm.OpcodeEnd))
	m.MemorySection = []*wasm.Memory{oneFixedPageMemory}
	m.GlobalSection = []*wasm.Global{mutableGlobal(-1)}
	m.DataSection = []*wasm.DataSegment{{OffsetExpression: constExpr(0), Init: sub}}
	return m
}

func TestPollOneoff(t *testing.T) {
	var slept []time.Duration
	sleeper := WithSleeper(func(d time.Duration) { slept = append(slept, d) })

	m := pollOneoffModule(1, subscription(0x0102030405060708, wasip1.EventTypeClock, uint64(time.Millisecond), 0))
	status, inst, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors), sleeper)
	require.NoError(t, err)
	require.Equal(t, sys.ExitStatus{Reason: sys.ExitEnd}, status)
	require.Equal(t, []time.Duration{time.Millisecond}, slept)

	expectedEvent := []byte{
		8, 7, 6, 5, 4, 3, 2, 1, // userdata
		0, 0, // errno
		wasip1.EventTypeClock,
	}
	expectedEvent = append(expectedEvent, make([]byte, wasip1.EventSize-len(expectedEvent))...)
	event, _ := inst.Memory.Read(64, wasip1.EventSize)
	require.Equal(t, expectedEvent, event)

	nevents, _ := inst.Memory.ReadUint32Le(128)
	require.Equal(t, uint32(1), nevents)
	require.Equal(t, wasm.ValueI32(int32(wasip1.ErrnoSuccess)), inst.Globals[0].Get())
}

func TestPollOneoff_TimeoutCapped(t *testing.T) {
	var slept time.Duration
	sleeper := WithSleeper(func(d time.Duration) { slept = d })

	m := pollOneoffModule(1, subscription(0, wasip1.EventTypeClock, math.MaxUint64, 0))
	_, _, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors), sleeper)
	require.NoError(t, err)
	require.Equal(t, time.Duration(math.MaxInt64), slept)
}

func TestPollOneoff_Errors(t *testing.T) {
	withFlags := subscription(0, wasip1.EventTypeClock, 1, 0)
	binary.LittleEndian.PutUint16(withFlags[wasip1.SubscriptionClockFlagsOffset:], 1) // abstime

	tests := []struct {
		name           string
		nsubscriptions int32
		sub            []byte
		expectedErr    error
	}{
		{
			name:           "no subscriptions",
			nsubscriptions: 0,
			sub:            subscription(0, wasip1.EventTypeClock, 1, 0),
			expectedErr:    ErrUnsupportedSubscriptionCount,
		},
		{
			name:           "two subscriptions",
			nsubscriptions: 2,
			sub:            subscription(0, wasip1.EventTypeClock, 1, 0),
			expectedErr:    ErrUnsupportedSubscriptionCount,
		},
		{
			name:           "precision",
			nsubscriptions: 1,
			sub:            subscription(0, wasip1.EventTypeClock, 1, 1),
			expectedErr:    ErrUnsupportedClockSubscription,
		},
		{
			name:           "flags",
			nsubscriptions: 1,
			sub:            withFlags,
			expectedErr:    ErrUnsupportedClockSubscription,
		},
		{
			name:           "fd_read",
			nsubscriptions: 1,
			sub:            subscription(0, wasip1.EventTypeFdRead, 0, 0),
			expectedErr:    ErrUnsupportedEventType,
		},
		{
			name:           "fd_write",
			nsubscriptions: 1,
			sub:            subscription(0, wasip1.EventTypeFdWrite, 0, 0),
			expectedErr:    ErrUnsupportedEventType,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			slept := false
			sleeper := WithSleeper(func(time.Duration) { slept = true })

			_, _, err := run(t, pollOneoffModule(tc.nsubscriptions, tc.sub), sys.NewFileTable(sys.DefaultDescriptors), sleeper)
			require.ErrorIs(t, err, tc.expectedErr)
			require.False(t, slept)
		})
	}
}

func TestPollOneoff_NoMemory(t *testing.T) {
	m := pollOneoffModule(1, nil)
	m.MemorySection, m.DataSection = nil, nil

	_, _, err := run(t, m, sys.NewFileTable(sys.DefaultDescriptors), noSleep)
	require.ErrorIs(t, err, wasm.ErrNoMemory)
}
