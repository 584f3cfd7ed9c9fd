package wasip1

// https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-eventtype-enumu8
const (
	// EventTypeClock is the timeout event named "clock".
	EventTypeClock = iota
	// EventTypeFdRead is the data available event named "fd_read".
	EventTypeFdRead
	// EventTypeFdWrite is the capacity available event named "fd_write".
	EventTypeFdWrite
)

// EventTypeName returns the name of the event type, as used in the ABI documentation.
func EventTypeName(t byte) string {
	switch t {
	case EventTypeClock:
		return "clock"
	case EventTypeFdRead:
		return "fd_read"
	case EventTypeFdWrite:
		return "fd_write"
	}
	return "unknown"
}

// Layout of a subscription, 48 bytes in total.
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-subscription-struct
const (
	SubscriptionSize           = 48
	SubscriptionUserdataOffset = 0
	SubscriptionTagOffset      = 8
	// SubscriptionClockIDOffset and the following offsets are into subscription_clock, past the union tag.
	SubscriptionClockIDOffset        = 16
	SubscriptionClockTimeoutOffset   = 24
	SubscriptionClockPrecisionOffset = 32
	SubscriptionClockFlagsOffset     = 40
)

// Layout of an event, 32 bytes in total.
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-event-struct
const (
	EventSize           = 32
	EventUserdataOffset = 0
	EventErrnoOffset    = 8
	EventTypeOffset     = 10
)

// Layout of an iovec, 8 bytes in total.
// See https://github.com/WebAssembly/WASI/blob/snapshot-01/phases/snapshot/docs.md#-iovec-struct
const (
	IovecSize         = 8
	IovecBufOffset    = 0
	IovecBufLenOffset = 4
)
