package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TripPatch is a partial update of the fields a user may edit on a recorded
// trip. A nil field is left untouched. Arrival fields are not patchable: they
// are only ever set by finishing the trip.
type TripPatch struct {
	Date          *string  `json:"data,omitempty"`
	DepartureTime *string  `json:"hora_saida,omitempty"`
	StartKm       *Reading `json:"km_inicial,omitempty"`
	Destination   *string  `json:"destino,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TripPatch) IsEmpty() bool {
	return p.Date == nil && p.DepartureTime == nil && p.StartKm == nil && p.Destination == nil
}

// ParseTripPatch builds a TripPatch from key/value pairs such as
// "destino=Campinas" given on the command line. Keys are the column names of
// the trip table; any other key is rejected with ErrValidation.
func ParseTripPatch(fields map[string]string) (TripPatch, error) {
	var p TripPatch
	var unknown []string
	for key, value := range fields {
		v := value
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "data":
			p.Date = &v
		case "hora_saida":
			p.DepartureTime = &v
		case "km_inicial":
			r := Reading(v)
			p.StartKm = &r
		case "destino":
			p.Destination = &v
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return TripPatch{}, fmt.Errorf("%w: unknown fields: %s", ErrValidation, strings.Join(unknown, ", "))
	}
	return p, nil
}

// Apply returns a copy of trip with the patch applied, validating each
// changed field and the trip invariants afterwards.
func (p TripPatch) Apply(trip Trip) (Trip, error) {
	if p.IsEmpty() {
		return Trip{}, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	date := trip.Date
	if p.Date != nil {
		date = strings.TrimSpace(*p.Date)
	}
	clock := trip.DepartureTime()
	if p.DepartureTime != nil {
		clock = strings.TrimSpace(*p.DepartureTime)
	}
	departure, ok := ValidateDateTime(date, clock)
	if !ok {
		return Trip{}, fmt.Errorf("%w: invalid date or departure time", ErrValidation)
	}

	out := trip
	out.Date = date
	out.Departure = departure

	// Arrival shares the trip's date; move it along with a date change.
	if out.Arrival != nil && p.Date != nil {
		arrival, ok := ValidateDateTime(date, trip.ArrivalTime())
		if !ok {
			return Trip{}, fmt.Errorf("%w: invalid arrival time", ErrValidation)
		}
		out.Arrival = &arrival
	}

	if p.StartKm != nil {
		km, ok := ValidateOdometer(*p.StartKm)
		if !ok {
			return Trip{}, fmt.Errorf("%w: invalid start km %q", ErrValidation, *p.StartKm)
		}
		out.StartKm = km
	}
	if out.EndKm != nil && !ValidateOdometerDelta(out.StartKm, *out.EndKm) {
		return Trip{}, fmt.Errorf("%w: start km %d is above end km %d", ErrValidation, out.StartKm, *out.EndKm)
	}

	if p.Destination != nil {
		out.Destination = SanitizeDestination(*p.Destination)
		if out.Destination == "" {
			return Trip{}, fmt.Errorf("%w: destination is required", ErrValidation)
		}
	}
	return out, nil
}
