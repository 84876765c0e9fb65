// Package authevents carries the latest unacknowledged auth failure to the shell.
package authevents

import (
	"context"
	"sync"
)

// Code is the HTTP status that ended the session
type Code int

const (
	Unauthorized Code = 401
	Forbidden    Code = 403
)

// Message returns the user-facing notification for the code
func (c Code) Message() string {
	switch c {
	case Unauthorized:
		return "session expired"
	case Forbidden:
		return "access denied"
	default:
		return ""
	}
}

// Recorder observes published events
type Recorder interface {
	AuthEvent(ctx context.Context, code int)
}

// Channel is a single-slot broadcast: a new event overwrites any
// unacknowledged one, and every change wakes all current watchers.
type Channel struct {
	mu       sync.Mutex
	code     Code
	set      bool
	changed  chan struct{}
	recorder Recorder
}

// NewChannel creates an empty event channel; recorder may be nil
func NewChannel(recorder Recorder) *Channel {
	return &Channel{
		changed:  make(chan struct{}),
		recorder: recorder,
	}
}

// Emit publishes code, replacing any pending event
func (c *Channel) Emit(ctx context.Context, code Code) {
	c.mu.Lock()
	c.code = code
	c.set = true
	c.notifyLocked()
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.AuthEvent(ctx, int(code))
	}
}

// Clear acknowledges the pending event, if any
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.set {
		return
	}
	c.code = 0
	c.set = false
	c.notifyLocked()
}

// Last returns the pending event
func (c *Channel) Last() (Code, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.code, c.set
}

// Changed returns a channel closed on the next Emit or Clear
func (c *Channel) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.changed
}

func (c *Channel) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Channel) snapshot() (Code, bool, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.code, c.set, c.changed
}

// Notify calls fn with the pending event, then with every newly published
// one, until ctx is done. Events stay pending for other observers to clear.
func Notify(ctx context.Context, ch *Channel, fn func(Code)) error {
	code, ok, changed := ch.snapshot()
	for {
		if ok {
			fn(code)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
		code, ok, changed = ch.snapshot()
	}
}
