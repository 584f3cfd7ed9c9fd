package wasip1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupHostFunction(t *testing.T) {
	tests := []struct {
		name        string
		expected    HostFunction
		params      int
		results     int
		expectedStr string
	}{
		{name: ProcExitName, expected: ProcExit, params: 1, results: 0, expectedStr: "wasi_snapshot_preview1.proc_exit"},
		{name: FdWriteName, expected: FdWrite, params: 4, results: 1, expectedStr: "wasi_snapshot_preview1.fd_write"},
		{name: PollOneoffName, expected: PollOneoff, params: 4, results: 1, expectedStr: "wasi_snapshot_preview1.poll_oneoff"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			f, ok := LookupHostFunction(tc.name)
			require.True(t, ok)
			require.Equal(t, tc.expected, f)
			require.Equal(t, tc.name, f.Name())
			require.Equal(t, tc.params, f.ParamCount())
			require.Equal(t, tc.results, f.ResultCount())
			require.Equal(t, tc.expectedStr, f.String())
		})
	}
}

func TestLookupHostFunction_Unknown(t *testing.T) {
	for _, name := range []string{"fd_read", "args_get", "", "PROC_EXIT"} {
		_, ok := LookupHostFunction(name)
		require.False(t, ok, name)
	}
	require.Equal(t, "unknown(0)", HostFunction(0).Name())
}

func TestErrnoName(t *testing.T) {
	require.Equal(t, "ESUCCESS", ErrnoName(ErrnoSuccess))
	require.Equal(t, "EBADF", ErrnoName(ErrnoBadf))
	require.Equal(t, "ENOMEM", ErrnoName(ErrnoNomem))
	require.Equal(t, "errno(99)", ErrnoName(99))
}

func TestLayouts(t *testing.T) {
	// The clock fields end before the next subscription starts.
	require.LessOrEqual(t, SubscriptionClockFlagsOffset+2, SubscriptionSize)
	require.LessOrEqual(t, EventTypeOffset+1, EventSize)
	require.Equal(t, "clock", EventTypeName(EventTypeClock))
	require.Equal(t, "fd_write", EventTypeName(EventTypeFdWrite))
}
