package controller

import (
	"sync"
	"time"

	"github.com/roach88/gridprefs/internal/grid"
	"github.com/roach88/gridprefs/internal/schedule"
)

// DefaultDebounce is the quiescence window of each edit channel.
const DefaultDebounce = 150 * time.Millisecond

// debouncer buffers the latest value of one edit channel until no new value
// arrives for the window, then commits it. Earlier values inside the window
// are dropped, not merged.
//
// A generation counter guards against a cancelled timer whose callback was
// already running when Cancel was called.
type debouncer struct {
	mu      sync.Mutex
	sched   schedule.Scheduler
	window  time.Duration
	commit  func(grid.OptionBag)
	task    schedule.Task
	gen     uint64
	pending grid.OptionBag
	waiting bool
}

func newDebouncer(s schedule.Scheduler, window time.Duration, commit func(grid.OptionBag)) *debouncer {
	return &debouncer{sched: s, window: window, commit: commit}
}

// Push replaces the buffered value and restarts the window.
func (d *debouncer) Push(bag grid.OptionBag) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	d.pending = bag.Clone()
	d.waiting = true
	if d.task != nil {
		d.task.Cancel()
	}
	d.task = d.sched.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.waiting {
		d.mu.Unlock()
		return
	}
	bag := d.take()
	d.mu.Unlock()

	d.commit(bag)
}

// take must be called with d.mu held.
func (d *debouncer) take() grid.OptionBag {
	bag := d.pending
	d.pending = nil
	d.waiting = false
	d.task = nil
	d.gen++
	return bag
}

// Flush commits the buffered value now. It reports whether there was one.
func (d *debouncer) Flush() bool {
	d.mu.Lock()
	if !d.waiting {
		d.mu.Unlock()
		return false
	}
	if d.task != nil {
		d.task.Cancel()
	}
	bag := d.take()
	d.mu.Unlock()

	d.commit(bag)
	return true
}

// Cancel drops the buffered value.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.task != nil {
		d.task.Cancel()
	}
	d.take()
}

// Waiting reports whether a value is buffered.
func (d *debouncer) Waiting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waiting
}
