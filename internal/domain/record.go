package domain

import (
	"fmt"
	"strings"
)

// TripRecord is the flat, display-formatted form of a Trip. It is the shape of
// the JSON document backend, of every export and of bulk edits.
// Distance and Duration are derived on output and ignored on input.
type TripRecord struct {
	ID            int64   `json:"ID"`
	Date          string  `json:"data"`
	DepartureTime string  `json:"hora_inicial"`
	StartKm       Reading `json:"km_inicial"`
	ArrivalTime   string  `json:"hora_final"`
	EndKm         Reading `json:"km_final"`
	Destination   string  `json:"destino"`
	Distance      int     `json:"total_km"`
	Duration      string  `json:"tempo_levado"`
}

// ToRecord flattens the trip. displayID is chosen by the caller: the stored
// ID for the SQL backends, the 1-indexed position for the JSON document.
func (t Trip) ToRecord(displayID int64) TripRecord {
	return TripRecord{
		ID:            displayID,
		Date:          t.Date,
		DepartureTime: t.DepartureTime(),
		StartKm:       ReadingOf(t.StartKm),
		ArrivalTime:   t.ArrivalTime(),
		EndKm:         optionalReading(t.EndKm),
		Destination:   t.Destination,
		Distance:      t.Distance(),
		Duration:      t.Duration(),
	}
}

// TripFromRecord rebuilds a Trip from a record, re-validating every field.
// It returns ErrValidation when the record has to be skipped. The record's ID
// is carried over unchanged.
func TripFromRecord(rec TripRecord) (Trip, error) {
	departure, ok := ValidateDateTime(rec.Date, rec.DepartureTime)
	if !ok {
		return Trip{}, fmt.Errorf("%w: invalid date or departure time %q %q", ErrValidation, rec.Date, rec.DepartureTime)
	}
	startKm, ok := ValidateOdometer(rec.StartKm)
	if !ok {
		return Trip{}, fmt.Errorf("%w: invalid start km %q", ErrValidation, rec.StartKm)
	}
	destination := SanitizeDestination(rec.Destination)
	if destination == "" {
		return Trip{}, fmt.Errorf("%w: destination is required", ErrValidation)
	}

	trip := NewTrip(rec.Date, departure, startKm, destination)
	trip.ID = rec.ID

	arrivalTime := strings.TrimSpace(rec.ArrivalTime)
	if arrivalTime == "" || arrivalTime == NotAvailable {
		if !rec.EndKm.Absent() {
			return Trip{}, fmt.Errorf("%w: end km without arrival time", ErrValidation)
		}
		return trip, nil
	}

	arrival, ok := ValidateDateTime(rec.Date, arrivalTime)
	if !ok {
		return Trip{}, fmt.Errorf("%w: invalid arrival time %q", ErrValidation, rec.ArrivalTime)
	}
	endKm, ok := ValidateOdometer(rec.EndKm)
	if !ok {
		return Trip{}, fmt.Errorf("%w: invalid end km %q", ErrValidation, rec.EndKm)
	}
	if !ValidateOdometerDelta(startKm, endKm) {
		return Trip{}, fmt.Errorf("%w: end km %d is below start km %d", ErrValidation, endKm, startKm)
	}
	trip.Finish(arrival, endKm)
	return trip, nil
}
