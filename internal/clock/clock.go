// Package clock abstracts time.Now so time-dependent rendering can be pinned
// in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

// Now returns time.Now.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clock frozen at one instant.
type Fixed struct {
	At time.Time
}

// Now returns the frozen instant.
func (f Fixed) Now() time.Time {
	return f.At
}

var (
	_ Clock = RealClock{}
	_ Clock = Fixed{}
)
