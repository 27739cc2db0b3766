// Package progress carries optional (current, total) progress ticks from a
// long-running transform to a caller-supplied sink.
//
// A Reporter is either absent, in which case reporting costs nothing, or
// present and wrapping a Sink. Transforms that split work across goroutines
// must report through a Counter so the sink sees serialized, non-decreasing ticks.
package progress

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives progress ticks. It runs on the goroutine doing the work and
// should return promptly.
type Sink func(current, total int)

// Reporter is an optional progress capability. The zero value is absent.
type Reporter struct {
	sink Sink
}

// None returns an absent reporter.
func None() Reporter { return Reporter{} }

// To returns a reporter delivering ticks to sink. A nil sink yields an absent reporter.
func To(sink Sink) Reporter { return Reporter{sink: sink} }

// Enabled reports whether ticks will reach a sink.
func (r Reporter) Enabled() bool { return r.sink != nil }

// Report delivers a tick, or does nothing if the reporter is absent.
func (r Reporter) Report(current, total int) {
	if r.sink != nil {
		r.sink(current, total)
	}
}

// Wrap returns a reporter that calls fn before forwarding each tick.
// Wrapping an absent reporter returns it unchanged.
func (r Reporter) Wrap(fn func(current, total int)) Reporter {
	if r.sink == nil {
		return r
	}
	next := r.sink
	return To(func(current, total int) {
		fn(current, total)
		next(current, total)
	})
}

// Counter counts completed units of work and reports them. It is safe for
// concurrent use; sink calls are serialized and never go backwards.
type Counter struct {
	mu      sync.Mutex
	r       Reporter
	current int
	total   int
}

// NewCounter creates a counter for total units and reports the initial (0, total) tick.
func NewCounter(r Reporter, total int) *Counter {
	if total < 1 {
		total = 1
	}
	c := &Counter{r: r, total: total}
	r.Report(0, total)
	return c
}

// Step marks one unit as done.
func (c *Counter) Step() {
	if !c.r.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < c.total {
		c.current++
	}
	c.r.Report(c.current, c.total)
}

// Done reports completion if it has not been reported yet.
func (c *Counter) Done() {
	if !c.r.Enabled() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < c.total {
		c.current = c.total
		c.r.Report(c.current, c.total)
	}
}

// Printer returns a sink writing one "current/total" line per tick to w.
func Printer(w io.Writer) Sink {
	return func(current, total int) {
		fmt.Fprintf(w, "%d/%d\n", current, total)
	}
}
