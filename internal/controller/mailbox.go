package controller

import (
	"sync"

	"github.com/roach88/gridprefs/internal/profile"
)

// request is one posted profile application.
type request struct {
	profile profile.Settings
	done    chan result // buffered, size 1
}

type result struct {
	report *ApplyReport
	err    error
}

func newRequest(p profile.Settings) *request {
	return &request{profile: p, done: make(chan result, 1)}
}

func (r *request) reply(rep *ApplyReport, err error) {
	r.done <- result{report: rep, err: err}
}

// mailbox is a single-slot, last-writer-wins mailbox in front of one worker.
//
// A request posted while the worker is idle is claimed at once and can no
// longer be displaced. Only requests posted while another one is claimed or
// running wait in the slot, where a later Put overwrites them and hands the
// displaced one back to the caller. The worker uses Wait for context-aware
// blocking: a buffered channel of size 1 absorbs repeated signals.
type mailbox struct {
	mu      sync.Mutex
	claimed *request // handed to the idle worker, not yet taken
	pending *request // waiting behind the claimed or running request
	busy    bool
	closed  bool
	signal  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

// Put posts r. It returns the request r displaced, if any, and false when
// the mailbox is closed.
func (m *mailbox) Put(r *request) (displaced *request, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false
	}
	if !m.busy {
		m.busy = true
		m.claimed = r
	} else {
		displaced = m.pending
		m.pending = r
	}

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return displaced, true
}

// Take hands the worker its next request without blocking. When nothing is
// left the worker is marked idle, so the next Put is claimed directly.
func (m *mailbox) Take() (*request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r := m.claimed; r != nil {
		m.claimed = nil
		return r, true
	}
	if r := m.pending; r != nil {
		m.pending = nil
		return r, true
	}
	m.busy = false
	return nil, false
}

// Remove drops r if the worker has not taken it yet. It reports whether r
// was removed.
func (m *mailbox) Remove(r *request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch r {
	case m.pending:
		m.pending = nil
	case m.claimed:
		m.claimed = nil
		if m.pending != nil {
			// the waiting request moves up instead of waiting on a run that never starts
			m.claimed, m.pending = m.pending, nil
		}
	default:
		return false
	}
	return true
}

// Pending reports whether a request waits behind a claimed or running one.
func (m *mailbox) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Busy reports whether a request is claimed or running.
func (m *mailbox) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Wait returns a channel that signals when a request may be available.
func (m *mailbox) Wait() <-chan struct{} {
	return m.signal
}

// Close rejects further requests and returns those the worker never took.
func (m *mailbox) Close() []*request {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.signal)

	var left []*request
	for _, r := range []*request{m.claimed, m.pending} {
		if r != nil {
			left = append(left, r)
		}
	}
	m.claimed, m.pending = nil, nil
	return left
}
