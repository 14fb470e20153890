package service

import "time"

// Clock is the time source for record timestamps and staleness checks.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}
