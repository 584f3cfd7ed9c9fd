package wasmos

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/r00ster91/wasmos/sys"
)

// RuntimeConfig controls runtime behavior, with the default implementation as NewRuntimeConfig
//
// Ex. To allow a guest to be stopped by cancelling its context:
//
//	rConfig = wasmos.NewRuntimeConfig().WithCloseOnContextDone(true)
//
// Note: RuntimeConfig is immutable. Each WithXXX function returns a new instance including the corresponding change.
type RuntimeConfig interface {
	// WithDescriptors sets the count of file descriptors a guest can write to, numbered from zero. Defaults to
	// sys.DefaultDescriptors.
	//
	// A guest writing to a descriptor at or past the count gets the EBADF errno, but keeps running.
	WithDescriptors(descriptors int) RuntimeConfig

	// WithOutputLimit bounds the size in bytes of each descriptor. Zero, the default, means no limit.
	//
	// A write that would exceed the limit appends nothing, and the guest gets the ENOMEM errno.
	WithOutputLimit(bytes int) RuntimeConfig

	// WithSleeper replaces time.Sleep as what the poll_oneoff clock subscription blocks with. This is mostly useful
	// for tests, or to speed up a guest.
	WithSleeper(sleep func(time.Duration)) RuntimeConfig

	// WithCloseOnContextDone ensures the executions of a guest are stopped once the context passed to Runtime.Run is
	// done: cancelled or past its deadline. Defaults to false.
	//
	// Note: This checks the context on each backward branch, so a run blocked in poll_oneoff still sleeps until its
	// timeout elapses.
	WithCloseOnContextDone(bool) RuntimeConfig

	// WithLogger sets the logger of decoding, instantiation and execution. Defaults to a no-op logger.
	//
	// Note: The logger is process-wide. The last Runtime created with a logger wins.
	WithLogger(*zap.Logger) RuntimeConfig
}

type runtimeConfig struct {
	descriptors        int
	outputLimit        int
	sleep              func(time.Duration)
	closeOnContextDone bool
	logger             *zap.Logger
}

// engineLessConfig helps avoid copy/pasting the wrong defaults.
var engineLessConfig = &runtimeConfig{
	descriptors: sys.DefaultDescriptors,
}

// NewRuntimeConfig returns a RuntimeConfig using the defaults.
func NewRuntimeConfig() RuntimeConfig {
	return engineLessConfig.clone()
}

// clone makes a copy of this runtime config.
func (c *runtimeConfig) clone() *runtimeConfig {
	ret := *c
	return &ret
}

// WithDescriptors implements RuntimeConfig.WithDescriptors
func (c *runtimeConfig) WithDescriptors(descriptors int) RuntimeConfig {
	if descriptors < 0 {
		panic(fmt.Errorf("descriptors invalid: %d < 0", descriptors))
	}
	ret := c.clone()
	ret.descriptors = descriptors
	return ret
}

// WithOutputLimit implements RuntimeConfig.WithOutputLimit
func (c *runtimeConfig) WithOutputLimit(bytes int) RuntimeConfig {
	if bytes < 0 {
		panic(fmt.Errorf("outputLimit invalid: %d < 0", bytes))
	}
	ret := c.clone()
	ret.outputLimit = bytes
	return ret
}

// WithSleeper implements RuntimeConfig.WithSleeper
func (c *runtimeConfig) WithSleeper(sleep func(time.Duration)) RuntimeConfig {
	ret := c.clone()
	ret.sleep = sleep
	return ret
}

// WithCloseOnContextDone implements RuntimeConfig.WithCloseOnContextDone
func (c *runtimeConfig) WithCloseOnContextDone(closeOnContextDone bool) RuntimeConfig {
	ret := c.clone()
	ret.closeOnContextDone = closeOnContextDone
	return ret
}

// WithLogger implements RuntimeConfig.WithLogger
func (c *runtimeConfig) WithLogger(logger *zap.Logger) RuntimeConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}
