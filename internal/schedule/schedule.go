// Package schedule abstracts delayed execution so debounce windows can be
// driven by a manual clock in tests.
package schedule

import "time"

// Task is a cancellable scheduled callback.
type Task interface {
	// Cancel stops the task. It reports whether the call prevented the
	// callback from running.
	Cancel() bool
}

// Scheduler runs fn once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// System schedules on the runtime timer.
type System struct{}

// AfterFunc implements Scheduler.
func (System) AfterFunc(d time.Duration, fn func()) Task {
	return timerTask{time.AfterFunc(d, fn)}
}

type timerTask struct {
	t *time.Timer
}

func (t timerTask) Cancel() bool {
	return t.t.Stop()
}
