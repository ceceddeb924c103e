// Package service contains the business logic of the trip logbook.
// Services validate inputs, enforce the trip lifecycle, and orchestrate repo calls.
// No storage code lives here: services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/repo"
)

// StartTripInput carries the user's answers for a new trip. Empty Date and
// DepartureTime default to the current date and time.
type StartTripInput struct {
	Date          string
	DepartureTime string
	StartKm       domain.Reading
	Destination   string
}

// FinishTripInput carries the arrival of the active trip. ID is optional;
// when set, it must name the active trip. Empty Date and ArrivalTime default
// to the current date and time.
type FinishTripInput struct {
	ID          int64
	Date        string
	ArrivalTime string
	EndKm       domain.Reading
}

// ReplaceResult reports how a bulk replace went.
type ReplaceResult struct {
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`
}

// TripService implements the trip lifecycle on top of a TripRepo.
// At most one trip is active at any time.
type TripService struct {
	repo  repo.TripRepo
	clock Clock
	log   *slog.Logger
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo, clock Clock, log *slog.Logger) *TripService {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TripService{repo: r, clock: clock, log: log}
}

// StartTrip validates the input and persists a new active trip.
func (s *TripService) StartTrip(ctx context.Context, in StartTripInput) (domain.Trip, error) {
	now := s.clock.Now()
	date := orDefault(in.Date, now.Format(domain.DateLayout))
	clock := orDefault(in.DepartureTime, now.Format(domain.TimeLayout))

	startKm, ok := domain.ValidateOdometer(in.StartKm)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w: start km must be a non-negative integer, got %q", domain.ErrValidation, in.StartKm)
	}
	departure, ok := domain.ValidateDateTime(date, clock)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w: invalid date or time %q %q (use DD/MM/YYYY and HH:MM)", domain.ErrValidation, date, clock)
	}
	destination := domain.SanitizeDestination(in.Destination)
	if destination == "" {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w: destination is required", domain.ErrValidation)
	}

	active, found, err := s.ActiveTrip(ctx)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w", err)
	}
	if found {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w: trip %d to %s is still active", domain.ErrValidation, active.ID, active.Destination)
	}

	created, err := s.repo.Create(ctx, domain.NewTrip(date, departure, startKm, destination))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w", err)
	}
	s.log.InfoContext(ctx, "trip started", "trip_id", created.ID, "destination", created.Destination, "start_km", created.StartKm)
	return created, nil
}

// FinishTrip records the arrival of the active trip.
func (s *TripService) FinishTrip(ctx context.Context, in FinishTripInput) (domain.Trip, error) {
	trip, err := s.finishTarget(ctx, in.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w", err)
	}

	now := s.clock.Now()
	date := orDefault(in.Date, now.Format(domain.DateLayout))
	clock := orDefault(in.ArrivalTime, now.Format(domain.TimeLayout))

	endKm, ok := domain.ValidateOdometer(in.EndKm)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w: end km must be a non-negative integer, got %q", domain.ErrValidation, in.EndKm)
	}
	arrival, ok := domain.ValidateDateTime(date, clock)
	if !ok {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w: invalid date or time %q %q (use DD/MM/YYYY and HH:MM)", domain.ErrValidation, date, clock)
	}
	if !domain.ValidateOdometerDelta(trip.StartKm, endKm) {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w: end km %d is below start km %d", domain.ErrValidation, endKm, trip.StartKm)
	}
	if !domain.ValidateChronology(trip.Departure, arrival) {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w: arrival %s is before departure %s",
			domain.ErrValidation, arrival.Format(domain.DateTimeLayout), trip.Departure.Format(domain.DateTimeLayout))
	}

	// Only the arrival clock time is stored, on the trip's own date.
	arrival, _ = domain.ValidateDateTime(trip.Date, clock)
	trip.Finish(arrival, endKm)

	updated, err := s.repo.Update(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w", err)
	}
	s.log.InfoContext(ctx, "trip finished", "trip_id", updated.ID, "distance_km", updated.Distance(), "duration", updated.Duration())
	return updated, nil
}

// finishTarget resolves the trip FinishTrip should close.
func (s *TripService) finishTarget(ctx context.Context, id int64) (domain.Trip, error) {
	active, found, err := s.ActiveTrip(ctx)
	if err != nil {
		return domain.Trip{}, err
	}
	switch {
	case found && (id == 0 || id == active.ID):
		return active, nil
	case id == 0:
		return domain.Trip{}, domain.ErrNoActiveTrip
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: trip %d does not exist", domain.ErrNotFound, id)
		}
		return domain.Trip{}, err
	}
	return domain.Trip{}, fmt.Errorf("%w: trip %d is not active", domain.ErrNotFound, id)
}

// ListTrips returns every trip in storage order. It never returns nil.
func (s *TripService) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListTrips: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

// History returns the flat records of every trip, newest departure first.
// Each record's ID is the trip ID.
func (s *TripService) History(ctx context.Context) ([]domain.TripRecord, error) {
	trips, err := s.ListTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.History: %w", err)
	}
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].Departure.After(trips[j].Departure)
	})
	records := make([]domain.TripRecord, len(trips))
	for i, t := range trips {
		records[i] = t.ToRecord(t.ID)
	}
	return records, nil
}

// GetTrip returns the trip with the given ID.
func (s *TripService) GetTrip(ctx context.Context, id int64) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w", err)
	}
	return trip, nil
}

// ActiveTrip returns the trip in progress, if any.
func (s *TripService) ActiveTrip(ctx context.Context) (domain.Trip, bool, error) {
	trip, err := s.repo.GetActive(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, false, nil
	}
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("service.TripService.ActiveTrip: %w", err)
	}
	return trip, true, nil
}

// ReplaceAll rebuilds the whole history from records, keeping their order.
// Records that fail validation are skipped and logged, as is any active
// record after the first one.
func (s *TripService) ReplaceAll(ctx context.Context, records []domain.TripRecord) (ReplaceResult, error) {
	trips := make([]domain.Trip, 0, len(records))
	var result ReplaceResult
	hasActive := false

	for i, rec := range records {
		trip, err := domain.TripFromRecord(rec)
		if err != nil {
			result.Skipped++
			s.log.WarnContext(ctx, "skipping invalid trip record", "index", i, "record_id", rec.ID, "reason", domain.Message(err))
			continue
		}
		if trip.IsActive() {
			if hasActive {
				result.Skipped++
				s.log.WarnContext(ctx, "skipping second active trip record", "index", i, "record_id", rec.ID)
				continue
			}
			hasActive = true
		}
		trips = append(trips, trip)
	}

	stored, err := s.repo.ReplaceAll(ctx, trips)
	if err != nil {
		return ReplaceResult{}, fmt.Errorf("service.TripService.ReplaceAll: %w", err)
	}
	result.Kept = len(stored)
	s.log.InfoContext(ctx, "history replaced", "kept", result.Kept, "skipped", result.Skipped)
	return result, nil
}

// UpdateFields applies a partial edit to one recorded trip.
func (s *TripService) UpdateFields(ctx context.Context, id int64, patch domain.TripPatch) (domain.Trip, error) {
	if patch.IsEmpty() {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateFields: %w: no fields to update", domain.ErrValidation)
	}
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateFields: %w", err)
	}
	patched, err := patch.Apply(trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateFields: %w", err)
	}
	updated, err := s.repo.Update(ctx, patched)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateFields: %w", err)
	}
	return updated, nil
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
