// Package repo contains the persistence backends of the trip logbook.
// Every backend implements TripRepo; the service layer only sees the interface.
// No business logic lives here, only storage and type mapping.
package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// TripRepo defines the persistence operations for trips.
// Implementations persist synchronously: when a mutating call returns nil the
// change is on disk.
type TripRepo interface {
	// Create stores a new trip and returns it with its assigned ID
	// (and timestamps, for the SQL backends).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Trip, error)

	// GetActive returns the most recently created trip that is still active.
	// Returns domain.ErrNotFound if every trip is finished.
	GetActive(ctx context.Context) (domain.Trip, error)

	// List returns all trips in creation order.
	List(ctx context.Context) ([]domain.Trip, error)

	// Update overwrites the stored fields of an existing trip and returns the
	// stored record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// ReplaceAll discards every stored trip and stores trips in the given
	// order, assigning fresh IDs. It returns the stored trips.
	ReplaceAll(ctx context.Context, trips []domain.Trip) ([]domain.Trip, error)
}

// tripRow is the column layout of the viagens table shared by the SQL backends.
type tripRow struct {
	ID          int64   `db:"id"`
	Date        string  `db:"data"`
	Departure   string  `db:"hora_saida"`
	StartKm     int     `db:"km_inicial"`
	Destination string  `db:"destino"`
	Arrival     *string `db:"hora_chegada"`
	EndKm       *int64  `db:"km_final"`
}

// toDomain converts a stored row into a domain.Trip.
// A row that no longer parses is reported as a persistence error: the SQL
// backends only ever store validated values.
func (r tripRow) toDomain(createdAt, updatedAt time.Time) (domain.Trip, error) {
	departure, ok := domain.ValidateDateTime(r.Date, r.Departure)
	if !ok {
		return domain.Trip{}, fmt.Errorf("%w: trip %d: invalid date or departure %q %q", domain.ErrPersistence, r.ID, r.Date, r.Departure)
	}
	t := domain.NewTrip(r.Date, departure, r.StartKm, r.Destination)
	t.ID = r.ID
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt

	if r.Arrival != nil && r.EndKm != nil {
		arrival, ok := domain.ValidateDateTime(r.Date, *r.Arrival)
		if !ok {
			return domain.Trip{}, fmt.Errorf("%w: trip %d: invalid arrival %q", domain.ErrPersistence, r.ID, *r.Arrival)
		}
		t.Finish(arrival, int(*r.EndKm))
	}
	return t, nil
}

// tripArgs returns the named query arguments for a trip's stored columns.
// NULL is used for the arrival columns of an active trip.
func tripArgs(trip domain.Trip) map[string]any {
	args := map[string]any{
		"id":           trip.ID,
		"data":         trip.Date,
		"hora_saida":   trip.DepartureTime(),
		"km_inicial":   trip.StartKm,
		"destino":      trip.Destination,
		"hora_chegada": nil,
		"km_final":     nil,
	}
	if !trip.IsActive() {
		args["hora_chegada"] = trip.ArrivalTime()
		args["km_final"] = *trip.EndKm
	}
	return args
}
