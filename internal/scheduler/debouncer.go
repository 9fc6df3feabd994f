package scheduler

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// Debouncer runs the most recently scheduled function once no new schedule
// arrived for the configured delay. Cancel and Flush invalidate the pending
// call without waiting for its timer.
type Debouncer struct {
	mu        sync.Mutex
	debounced func(func())
	delay     time.Duration
	gen       uint64
	pending   bool
}

// New creates a debouncer with the given delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		debounced: debounce.New(delay),
		delay:     delay,
	}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending call with fn and restarts the quiet period.
func (d *Debouncer) Schedule(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.pending = true
	d.mu.Unlock()

	d.debounced(func() {
		d.mu.Lock()
		if gen != d.gen || !d.pending {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		fn()
	})
}

// Pending reports whether a scheduled call has not fired yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops the pending call and reports whether one existed.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	was := d.pending
	d.pending = false
	d.gen++
	return was
}

// AnyPending is the OR of the debouncers' pending flags.
func AnyPending(debouncers ...*Debouncer) bool {
	for _, d := range debouncers {
		if d != nil && d.Pending() {
			return true
		}
	}
	return false
}

// CancelAll cancels every debouncer and reports whether any call was pending.
func CancelAll(debouncers ...*Debouncer) bool {
	cancelled := false
	for _, d := range debouncers {
		if d != nil && d.Cancel() {
			cancelled = true
		}
	}
	return cancelled
}
