// Package clockx contains the clock sources used to stamp uploads with
// the client-observed time.
//
// The request builder never reads the system clock directly. It receives
// a [Source] and samples it exactly once per request, which keeps request
// construction deterministic under test.
//
// An [Offset] additionally tracks the clock of the ingestion server, as
// seen through the Date header of its responses, so that we can warn the
// user when the device clock is definitely off.
package clockx

import (
	"net/http"
	"sync"
	"time"

	"github.com/immuni/upload-client/internal/model"
)

// Source returns the current instant.
type Source func() time.Time

// System is the [Source] reading the system clock.
var System Source = time.Now

// Fixed returns a [Source] that always returns t.
func Fixed(t time.Time) Source {
	return func() time.Time {
		return t
	}
}

// OrSystem returns s if not nil and otherwise [System].
func OrSystem(s Source) Source {
	if s != nil {
		return s
	}
	return System
}

// SmallOffset is the offset between the device and the server clocks
// above which [Offset.MaybeWarnAboutClockBeingOff] emits a warning.
const SmallOffset = 5 * time.Minute

// Offset tracks the server clock. The zero value is ready to use.
type Offset struct {
	// serverTime contains the time according to the server.
	serverTime time.Time

	// good indicates whether we have good data.
	good bool

	// monotonicTimeUTC contains the monotonic UTC clock reading when we
	// saved the serverTime. Times parsed from headers contain no
	// monotonic clock readings.
	monotonicTimeUTC time.Time

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Save saves the time according to the server. A zero time is ignored.
func (o *Offset) Save(cur time.Time) {
	if cur.IsZero() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.serverTime = cur
	o.good = true
	o.monotonicTimeUTC = time.Now().UTC()
}

// SaveDateHeader parses the value of a Date response header and saves
// it using [Offset.Save]. Unparseable values are ignored.
func (o *Offset) SaveDateHeader(value string) {
	if value == "" {
		return
	}
	cur, err := http.ParseTime(value)
	if err != nil {
		return
	}
	o.Save(cur)
}

// Now returns the current time using as zero time the time saved by
// [Offset.Save] rather than the system clock.
func (o *Offset) Now() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.good {
		return time.Time{}, false
	}
	delta := time.Since(o.monotonicTimeUTC)
	return o.serverTime.Add(delta), true
}

// Offset returns the offset between the device clock and the server
// clock provided that [Offset.Save] has been called.
func (o *Offset) Offset() (time.Duration, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.good {
		return 0, false
	}
	return o.monotonicTimeUTC.Sub(o.serverTime), true
}

// MaybeWarnAboutClockBeingOff emits a warning if the device clock is off
// by more than [SmallOffset] compared to the server clock.
func (o *Offset) MaybeWarnAboutClockBeingOff(logger model.Logger) {
	delta, good := o.Offset()
	if !good {
		return
	}
	if delta < -SmallOffset || delta > SmallOffset {
		server, _ := o.Now()
		logger.Warnf("clockx: the device clock is off by %s (server time: %s)", delta, server.Format(time.RFC3339))
	}
}

