package main

import (
	"time"
)

var (
	_ Clocker = (*Clock)(nil)      // ensure Clock implements Clocker.
	_ Timer   = (*time.Timer)(nil) // ensure *time.Timer implements Timer.
)

// Clocker is an interface for getting current real time
// and scheduling a function to run after a delay.
type Clocker interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer we rely on.
type Timer interface {
	Stop() bool
}

// Clock implements the Clocker interface.
type Clock struct {
	tz *time.Location
}

// NewClock returns a ready to use Clock with timezone sets
// to UTC in production environment and Local in dev env.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// AfterFunc waits for the duration to elapse and then calls f in its own goroutine.
func (ck *Clock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewTicker makes Clock usable as zapcore.Clock.
func (ck *Clock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
