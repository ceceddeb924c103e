// Package handler implements the HTTP handlers for the trip logbook API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, export.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching storage or the service layer.
type TripServicer interface {
	StartTrip(ctx context.Context, in service.StartTripInput) (domain.Trip, error)
	FinishTrip(ctx context.Context, in service.FinishTripInput) (domain.Trip, error)
	History(ctx context.Context) ([]domain.TripRecord, error)
	GetTrip(ctx context.Context, id int64) (domain.Trip, error)
	ActiveTrip(ctx context.Context) (domain.Trip, bool, error)
	ReplaceAll(ctx context.Context, records []domain.TripRecord) (service.ReplaceResult, error)
	UpdateFields(ctx context.Context, id int64, patch domain.TripPatch) (domain.Trip, error)
}

// ExportServicer defines the export operations the download handler depends on.
type ExportServicer interface {
	Records(ctx context.Context) ([]domain.TripRecord, error)
	FileName(format domain.ExportFormat) string
}

// Server holds the dependencies of every endpoint.
type Server struct {
	trips  TripServicer
	export ExportServicer
	log    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, export ExportServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{trips: trips, export: export, log: log}
}

// Routes returns the API router. Cross-cutting middleware (request IDs,
// logging, CORS, body limits) is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.StartTrip)
		r.Put("/", s.ReplaceTrips)
		r.Get("/active", s.GetActiveTrip)
		r.Post("/finish", s.FinishTrip)
		r.Get("/{id:[0-9]+}", s.GetTrip)
		r.Patch("/{id:[0-9]+}", s.UpdateTrip)
	})

	r.Get("/export", s.GetExport)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}
