// Package hammer runs a test body from many goroutines at once, to expose races in types shared between a guest and
// the collaborators reading its output.
package hammer

import (
	"runtime"
	"sync"
	"testing"
)

// Hammer invokes a test concurrently in P goroutines N times per goroutine.
//
// Ex.
//
//	P, N := 8, 1000
//	if testing.Short() {
//		P, N = 4, 100
//	}
//	hammer.NewHammer(t, P, N).Run(func(p, n int) {
//		// Use p to choose a role, such as writer or reader.
//	}, nil)
//	if t.Failed() {
//		return
//	}
type Hammer interface {
	// Run starts P goroutines, waits until all are running, calls onRunning if not nil, then releases them together.
	// Each goroutine calls test N times. Run returns when every goroutine has finished.
	//
	// A panic in test, such as a failed require assertion, fails the calling test instead of crashing the process.
	Run(test func(p, n int), onRunning func())
}

// NewHammer returns a Hammer of P goroutines, each running the test N times.
func NewHammer(t *testing.T, P, N int) Hammer {
	return &hammer{t: t, P: P, N: N}
}

type hammer struct {
	t    *testing.T
	P, N int
}

// Run implements Hammer.Run
func (h *hammer) Run(test func(p, n int), onRunning func()) {
	// Fewer cores than goroutines forces them to switch.
	if procs := h.P / 2; procs > 0 {
		defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(procs))
	}

	var running, finished sync.WaitGroup
	start := make(chan struct{})

	running.Add(h.P)
	finished.Add(h.P)
	for p := 0; p < h.P; p++ {
		go func(p int) {
			defer finished.Done()
			defer func() {
				if recovered := recover(); recovered != nil {
					h.t.Error(recovered)
				}
			}()

			running.Done()
			<-start
			for n := 0; n < h.N; n++ {
				test(p, n)
			}
		}(p)
	}

	running.Wait()
	if onRunning != nil {
		onRunning()
	}
	close(start)
	finished.Wait()
}
