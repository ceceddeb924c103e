// Package domain contains the core data types and rules of the trip logbook:
// field validation, destination sanitising, the Trip lifecycle and its flat
// record form. It has no dependency on any other internal package.
package domain

import (
	"fmt"
	"time"
)

// Trip is one journey of the vehicle.
// A trip is active while Arrival and EndKm are nil and finished once both are
// set; there is no state in between.
type Trip struct {
	ID          int64
	Date        string // DD/MM/YYYY
	Departure   time.Time
	StartKm     int
	Destination string
	Arrival     *time.Time // nil while the trip is in progress
	EndKm       *int       // nil while the trip is in progress
	CreatedAt   time.Time  // zero for the JSON file backend
	UpdatedAt   time.Time  // zero for the JSON file backend
}

// NewTrip builds an active trip. The caller passes already validated values:
// departure from ValidateDateTime, startKm from ValidateOdometer and a
// destination from SanitizeDestination.
func NewTrip(date string, departure time.Time, startKm int, destination string) Trip {
	return Trip{
		Date:        date,
		Departure:   departure,
		StartKm:     startKm,
		Destination: destination,
	}
}

// Finish records the arrival. Ordering of endKm and chronology are checked by
// the caller, not here.
func (t *Trip) Finish(arrival time.Time, endKm int) {
	t.Arrival = &arrival
	t.EndKm = &endKm
}

// IsActive reports whether the trip has not been finished yet.
func (t Trip) IsActive() bool {
	return t.Arrival == nil || t.EndKm == nil
}

// DepartureTime returns the departure clock time as HH:MM.
func (t Trip) DepartureTime() string {
	return t.Departure.Format(TimeLayout)
}

// ArrivalTime returns the arrival clock time as HH:MM, or "N/A".
func (t Trip) ArrivalTime() string {
	if t.Arrival == nil {
		return NotAvailable
	}
	return t.Arrival.Format(TimeLayout)
}

// Distance returns the km driven, 0 for an active trip.
func (t Trip) Distance() int {
	if t.EndKm == nil {
		return 0
	}
	return *t.EndKm - t.StartKm
}

// Duration returns the time taken as HH:MM, or "N/A" for an active trip.
// Only the arrival clock time is persisted, so an arrival that reads earlier
// than the departure is an overnight trip and wraps around 24 hours.
func (t Trip) Duration() string {
	if t.Arrival == nil {
		return NotAvailable
	}
	d := t.Arrival.Sub(t.Departure) % (24 * time.Hour)
	if d < 0 {
		d += 24 * time.Hour
	}
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
