package service

import "time"

// Clock abstracts time so default dates and export file names are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock. Trips are logged in local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
