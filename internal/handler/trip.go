package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/service"
)

// StartTripRequest is the body of POST /trips. Empty date and time default
// to the server's current date and time.
type StartTripRequest struct {
	Date          string         `json:"data"`
	DepartureTime string         `json:"hora_saida"`
	StartKm       domain.Reading `json:"km_inicial"`
	Destination   string         `json:"destino"`
}

// FinishTripRequest is the body of POST /trips/finish. ID is optional and,
// when present, must name the active trip.
type FinishTripRequest struct {
	ID          int64          `json:"id,omitempty"`
	Date        string         `json:"data"`
	ArrivalTime string         `json:"hora_chegada"`
	EndKm       domain.Reading `json:"km_final"`
}

// ListTrips handles GET /trips.
// Records are newest first. Optional ?page= and ?limit= select one page
// (limit max 100); X-Total-Count always carries the full count.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, ok := paginationFromQuery(w, r)
	if !ok {
		return
	}
	records, err := s.trips.History(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(records)))
	writeJSON(w, http.StatusOK, domain.Paginate(records, params))
}

// StartTrip handles POST /trips.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	var req StartTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	trip, err := s.trips.StartTrip(r.Context(), service.StartTripInput{
		Date:          req.Date,
		DepartureTime: req.DepartureTime,
		StartKm:       req.StartKm,
		Destination:   req.Destination,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trips/"+strconv.FormatInt(trip.ID, 10))
	writeJSON(w, http.StatusCreated, trip.ToRecord(trip.ID))
}

// GetActiveTrip handles GET /trips/active.
func (s *Server) GetActiveTrip(w http.ResponseWriter, r *http.Request) {
	trip, found, err := s.trips.ActiveTrip(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeNoActiveTrip, "no trip is in progress")
		return
	}
	writeJSON(w, http.StatusOK, trip.ToRecord(trip.ID))
}

// FinishTrip handles POST /trips/finish.
func (s *Server) FinishTrip(w http.ResponseWriter, r *http.Request) {
	var req FinishTripRequest
	if !decodeBody(w, r, &req) {
		return
	}
	trip, err := s.trips.FinishTrip(r.Context(), service.FinishTripInput{
		ID:          req.ID,
		Date:        req.Date,
		ArrivalTime: req.ArrivalTime,
		EndKm:       req.EndKm,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip.ToRecord(trip.ID))
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripIDFromPath(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.GetTrip(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip.ToRecord(trip.ID))
}

// UpdateTrip handles PATCH /trips/{id}. Only data, hora_saida, km_inicial
// and destino may be sent; any other key is rejected.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripIDFromPath(w, r)
	if !ok {
		return
	}
	var patch domain.TripPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	trip, err := s.trips.UpdateFields(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip.ToRecord(trip.ID))
}

// ReplaceTrips handles PUT /trips: the body replaces the whole history.
// Invalid records are skipped and counted rather than failing the request.
func (s *Server) ReplaceTrips(w http.ResponseWriter, r *http.Request) {
	var records []domain.TripRecord
	if !decodeBody(w, r, &records) {
		return
	}
	result, err := s.trips.ReplaceAll(r.Context(), records)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// tripIDFromPath parses {id}. The route pattern only admits digits, so a
// failure here is an out-of-range number.
func tripIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "trip not found")
		return 0, false
	}
	return id, true
}

// paginationFromQuery reads ?page= and ?limit=. Non-numeric values are a 422.
func paginationFromQuery(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, limit *int
	for name, dst := range map[string]**int{"page": &page, "limit": &limit} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeValidation, name+" must be an integer")
			return domain.PaginationParams{}, false
		}
		*dst = &n
	}
	return domain.NewPaginationParams(page, limit), true
}
