package domain

import (
	"errors"
	"strings"
)

// ErrValidation is returned when input fails a field or business rule
// (malformed date, negative odometer, end km below start km, ...).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotFound is returned when the addressed trip does not exist, or exists
// but is not in the state the operation needs (e.g. finishing a finished trip).
var ErrNotFound = errors.New("not found")

// ErrNoActiveTrip is returned by FinishTrip when no trip is in progress.
var ErrNoActiveTrip = errors.New("no active trip")

// ErrEmptyHistory is returned by exports when there is nothing to export.
var ErrEmptyHistory = errors.New("empty history")

// ErrPersistence wraps I/O failures of the backing store.
var ErrPersistence = errors.New("persistence error")

var sentinels = []error{ErrValidation, ErrNotFound, ErrNoActiveTrip, ErrEmptyHistory, ErrPersistence}

// Message extracts the human-readable part of a wrapped sentinel error.
// e.g. "service.TripService.StartTrip: validation error: invalid start km" → "invalid start km"
// Only sentinels err actually wraps are looked for, at their first
// occurrence, so quoted user input cannot move the cut.
// An error that is just a sentinel returns the sentinel text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	cut, found := -1, error(nil)
	for _, s := range sentinels {
		if !errors.Is(err, s) {
			continue
		}
		if i := strings.Index(msg, s.Error()+": "); i >= 0 && (cut < 0 || i < cut) {
			cut, found = i, s
		}
	}
	if found != nil {
		return msg[cut+len(found.Error())+2:]
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return msg
}
