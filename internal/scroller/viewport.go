package scroller

import (
	"sync"
	"time"
)

// Viewport exposes the scroll geometry the proximity check reads. All
// values are pixels.
type Viewport interface {
	ScrollOffset() int
	ViewportHeight() int
	ContentHeight() int
}

// debouncer coalesces a burst of triggers into one trailing call after the
// interval passes without another trigger.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	fn       func()
}

func newDebouncer(interval time.Duration, fn func()) *debouncer {
	return &debouncer{interval: interval, fn: fn}
}

func (d *debouncer) Trigger() {
	if d.interval <= 0 {
		d.fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
