package tui

import (
	"fmt"
	"time"

	"github.com/codingwatching/companion/internal/clock"
)

// DefaultClock supplies "now" for relative formatting. Tests swap in a
// clock.Fixed to pin output.
//
//nolint:gochecknoglobals // injection point for tests
var DefaultClock clock.Clock = clock.RealClock{}

// RelativeTime renders a timestamp as "just now", "5 minutes ago",
// "2 days ago" and so on, against DefaultClock.
func RelativeTime(t time.Time) string {
	return RelativeTimeWith(t, DefaultClock)
}

// RelativeTimeWith is RelativeTime against an explicit clock.
func RelativeTimeWith(t time.Time, c clock.Clock) string {
	age := c.Now().Sub(t)

	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute")
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour")
	case age < 7*24*time.Hour:
		return plural(int(age.Hours()/24), "day")
	default:
		return plural(int(age.Hours()/(24*7)), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
