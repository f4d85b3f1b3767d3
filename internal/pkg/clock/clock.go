package clock

import "time"

// Clocker is the time source for notification timestamps, envelope send times and
// the client snapshot's LastUpdated.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system time.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
