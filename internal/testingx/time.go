package testingx

import (
	"sync"
	"time"

	"github.com/immuni/upload-client/internal/clockx"
)

// SteppingClock is a client clock whose readings start at a fixed
// moment and advance by a fixed step at every reading, so that tests can
// tell how many times, and in which order, uploads read the clock.
//
// It's safe to use from multiple goroutines.
type SteppingClock struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	reads int
}

// NewSteppingClock creates a [*SteppingClock] whose first reading is start.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{next: start, step: step}
}

// Now returns the current reading and advances the clock.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.next
	c.next = c.next.Add(c.step)
	c.reads++
	return out
}

// Reads returns the number of readings so far.
func (c *SteppingClock) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Source returns the clock as a [clockx.Source].
func (c *SteppingClock) Source() clockx.Source {
	return c.Now
}
