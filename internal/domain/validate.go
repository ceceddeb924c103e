package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts used for every date and time the logbook reads or writes.
const (
	DateLayout     = "02/01/2006"
	TimeLayout     = "15:04"
	DateTimeLayout = DateLayout + " " + TimeLayout
)

// ValidateDate reports whether s is a DD/MM/YYYY calendar date.
func ValidateDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidateTime reports whether s is a 24-hour HH:MM clock time.
func ValidateTime(s string) bool {
	// time.Parse accepts a single-digit hour for "15"; the logbook does not.
	if len(s) != len(TimeLayout) {
		return false
	}
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// ValidateDateTime combines date and clock into a single timestamp.
// The timestamp is only meaningful when ok is true.
func ValidateDateTime(date, clock string) (ts time.Time, ok bool) {
	if !ValidateDate(date) || !ValidateTime(clock) {
		return time.Time{}, false
	}
	ts, err := time.Parse(DateTimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// ValidateOdometer converts an integer-like value into a non-negative km
// reading. Accepted inputs are Go integers, integral floats, numeric strings
// (surrounding whitespace allowed), json.Number and Reading.
func ValidateOdometer(v any) (int, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || x < 0 || x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case string:
		x = strings.TrimSpace(x)
		parsed, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			// "1200.0" is what spreadsheets hand back for an integer cell.
			f, ferr := strconv.ParseFloat(x, 64)
			if ferr != nil {
				return 0, false
			}
			return ValidateOdometer(f)
		}
		n = parsed
	case json.Number:
		return ValidateOdometer(string(x))
	case Reading:
		return ValidateOdometer(string(x))
	default:
		return 0, false
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// ValidateOdometerDelta reports whether end is a plausible reading after start.
func ValidateOdometerDelta(start, end int) bool {
	return end >= start
}

// ValidateChronology reports whether arrival does not precede departure.
func ValidateChronology(departure, arrival time.Time) bool {
	return !arrival.Before(departure)
}
