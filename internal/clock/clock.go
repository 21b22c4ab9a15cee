// Package clock abstracts wall time and one-shot timers so that timed
// behavior can be driven deterministically in tests.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Clock provides the current time and one-shot scheduled callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable handle for a callback scheduled with AfterFunc.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer, false if it already fired or was stopped.
	Stop() bool
}

type wallClock struct {
	c bclock.Clock
}

// New returns a Clock backed by the system clock.
func New() Clock {
	return wallClock{c: bclock.New()}
}

func (w wallClock) Now() time.Time {
	return w.c.Now()
}

func (w wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return w.c.AfterFunc(d, f)
}
