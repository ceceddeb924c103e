package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NotAvailable is the literal used wherever an active trip has no value yet.
const NotAvailable = "N/A"

// Reading is an odometer value as it arrives from outside the core: a JSON
// number, a numeric string typed into a form, or "N/A" for an active trip.
// It keeps the raw text; ValidateOdometer decides whether it is usable.
type Reading string

// ReadingOf returns the Reading for a known km value.
func ReadingOf(km int) Reading {
	return Reading(strconv.Itoa(km))
}

// optionalReading returns ReadingOf(*km), or NotAvailable when km is nil.
func optionalReading(km *int) Reading {
	if km == nil {
		return NotAvailable
	}
	return ReadingOf(*km)
}

// Absent reports whether the reading carries no value.
func (r Reading) Absent() bool {
	return r == "" || r == NotAvailable
}

// MarshalJSON writes numeric readings as JSON numbers and anything else
// (normally "N/A") as a JSON string.
func (r Reading) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(r), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts a number, a string or null.
func (r *Reading) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reading(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("reading: %w", err)
		}
		*r = Reading(n.String())
		return nil
	}
}
