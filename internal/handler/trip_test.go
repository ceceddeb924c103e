package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-logbook/internal/domain"
	"github.com/pkordes/trip-logbook/internal/handler"
	"github.com/pkordes/trip-logbook/internal/middleware"
	"github.com/pkordes/trip-logbook/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	startTrip    func(ctx context.Context, in service.StartTripInput) (domain.Trip, error)
	finishTrip   func(ctx context.Context, in service.FinishTripInput) (domain.Trip, error)
	history      func(ctx context.Context) ([]domain.TripRecord, error)
	getTrip      func(ctx context.Context, id int64) (domain.Trip, error)
	activeTrip   func(ctx context.Context) (domain.Trip, bool, error)
	replaceAll   func(ctx context.Context, records []domain.TripRecord) (service.ReplaceResult, error)
	updateFields func(ctx context.Context, id int64, patch domain.TripPatch) (domain.Trip, error)
}

func (m *mockTripServicer) StartTrip(ctx context.Context, in service.StartTripInput) (domain.Trip, error) {
	return m.startTrip(ctx, in)
}
func (m *mockTripServicer) FinishTrip(ctx context.Context, in service.FinishTripInput) (domain.Trip, error) {
	return m.finishTrip(ctx, in)
}
func (m *mockTripServicer) History(ctx context.Context) ([]domain.TripRecord, error) {
	return m.history(ctx)
}
func (m *mockTripServicer) GetTrip(ctx context.Context, id int64) (domain.Trip, error) {
	return m.getTrip(ctx, id)
}
func (m *mockTripServicer) ActiveTrip(ctx context.Context) (domain.Trip, bool, error) {
	return m.activeTrip(ctx)
}
func (m *mockTripServicer) ReplaceAll(ctx context.Context, records []domain.TripRecord) (service.ReplaceResult, error) {
	return m.replaceAll(ctx, records)
}
func (m *mockTripServicer) UpdateFields(ctx context.Context, id int64, patch domain.TripPatch) (domain.Trip, error) {
	return m.updateFields(ctx, id, patch)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newHTTPHandler(svc handler.TripServicer) http.Handler {
	return handler.NewServer(svc, nil, nil).Routes()
}

func tripFixture(t *testing.T) domain.Trip {
	t.Helper()
	dep, ok := domain.ValidateDateTime("01/01/2024", "08:00")
	require.True(t, ok)
	trip := domain.NewTrip("01/01/2024", dep, 1000, "São Paulo")
	trip.ID = 3
	return trip
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func serve(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

// ---- POST /trips -----------------------------------------------------------

func TestStartTrip_201(t *testing.T) {
	var got service.StartTripInput
	svc := &mockTripServicer{
		startTrip: func(_ context.Context, in service.StartTripInput) (domain.Trip, error) {
			got = in
			return tripFixture(t), nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{
		"data":       "01/01/2024",
		"hora_saida": "08:00",
		"km_inicial": 1000,
		"destino":    "são paulo",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/trips/3", rec.Header().Get("Location"))
	assert.Equal(t, service.StartTripInput{
		Date: "01/01/2024", DepartureTime: "08:00", StartKm: "1000", Destination: "são paulo",
	}, got)

	var resp domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, "São Paulo", resp.Destination)
	assert.Equal(t, "N/A", resp.ArrivalTime)
	assert.Equal(t, "N/A", resp.Duration)
}

func TestStartTrip_422_ValidationError(t *testing.T) {
	svc := &mockTripServicer{
		startTrip: func(_ context.Context, _ service.StartTripInput) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.StartTrip: %w: destination is required", domain.ErrValidation)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{"km_inicial": "5"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "validation_error", detail.Code)
	assert.Equal(t, "destination is required", detail.Message)
}

func TestStartTrip_422_MalformedBody(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPost, "/trips", bytes.NewBufferString(`{"destino":`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestStartTrip_422_UnknownField(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPost, "/trips",
		jsonBody(t, map[string]any{"destino": "x", "motorista": "Ana"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "motorista")
}

func TestStartTrip_413_BodyTooLarge(t *testing.T) {
	h := middleware.NewMaxBodySizeHandler(16)(newHTTPHandler(&mockTripServicer{}))
	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{"destino": "`+strings.Repeat("x", 64)+`"}`))
	req.ContentLength = -1
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request_too_large", decodeError(t, rec).Code)
}

func TestStartTrip_500_HidesInternalError(t *testing.T) {
	svc := &mockTripServicer{
		startTrip: func(_ context.Context, _ service.StartTripInput) (domain.Trip, error) {
			return domain.Trip{}, errors.New("disk full at /var/lib/secret")
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips", jsonBody(t, map[string]any{"destino": "x"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, "internal_error", detail.Code)
	assert.NotContains(t, detail.Message, "secret")
}

// ---- POST /trips/finish ----------------------------------------------------

func TestFinishTrip_200(t *testing.T) {
	var got service.FinishTripInput
	svc := &mockTripServicer{
		finishTrip: func(_ context.Context, in service.FinishTripInput) (domain.Trip, error) {
			got = in
			trip := tripFixture(t)
			arr, _ := domain.ValidateDateTime("01/01/2024", "09:15")
			trip.Finish(arr, 1120)
			return trip, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/finish", jsonBody(t, map[string]any{
		"id": 3, "data": "01/01/2024", "hora_chegada": "09:15", "km_final": "1120",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.FinishTripInput{ID: 3, Date: "01/01/2024", ArrivalTime: "09:15", EndKm: "1120"}, got)

	var resp domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 120, resp.Distance)
	assert.Equal(t, "01:15", resp.Duration)
}

func TestFinishTrip_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNoActiveTrip, http.StatusConflict, "no_active_trip"},
		{fmt.Errorf("%w: trip 9 does not exist", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: end km 5 is below start km 10", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc := &mockTripServicer{
				finishTrip: func(_ context.Context, _ service.FinishTripInput) (domain.Trip, error) {
					return domain.Trip{}, fmt.Errorf("service.TripService.FinishTrip: %w", tc.err)
				},
			}

			rec := serve(newHTTPHandler(svc), http.MethodPost, "/trips/finish", jsonBody(t, map[string]any{"km_final": 5}))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

// ---- GET /trips ------------------------------------------------------------

func historyOf(n int) []domain.TripRecord {
	out := make([]domain.TripRecord, n)
	for i := range out {
		out[i] = domain.TripRecord{ID: int64(n - i), Date: "01/01/2024", Destination: "X"}
	}
	return out
}

func TestListTrips_200(t *testing.T) {
	svc := &mockTripServicer{
		history: func(_ context.Context) ([]domain.TripRecord, error) { return historyOf(2), nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var resp []domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
}

func TestListTrips_200_Empty(t *testing.T) {
	svc := &mockTripServicer{
		history: func(_ context.Context) ([]domain.TripRecord, error) { return []domain.TripRecord{}, nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListTrips_Paged(t *testing.T) {
	svc := &mockTripServicer{
		history: func(_ context.Context) ([]domain.TripRecord, error) { return historyOf(5), nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips?page=2&limit=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-Total-Count"))
	var resp []domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, int64(3), resp[0].ID)
	assert.Equal(t, int64(2), resp[1].ID)
}

func TestListTrips_PagePastTheEnd(t *testing.T) {
	svc := &mockTripServicer{
		history: func(_ context.Context) ([]domain.TripRecord, error) { return historyOf(3), nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips?page=92233720368547760&limit=100", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListTrips_422_BadLimit(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodGet, "/trips?limit=ten", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /trips/active -----------------------------------------------------

func TestGetActiveTrip_200(t *testing.T) {
	svc := &mockTripServicer{
		activeTrip: func(_ context.Context) (domain.Trip, bool, error) { return tripFixture(t), true, nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/active", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.ID)
}

func TestGetActiveTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		activeTrip: func(_ context.Context) (domain.Trip, bool, error) { return domain.Trip{}, false, nil },
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/active", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_active_trip", decodeError(t, rec).Code)
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	svc := &mockTripServicer{
		getTrip: func(_ context.Context, id int64) (domain.Trip, error) {
			require.Equal(t, int64(3), id)
			return tripFixture(t), nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/3", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.TripRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "01/01/2024", resp.Date)
	assert.Equal(t, "08:00", resp.DepartureTime)
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		getTrip: func(_ context.Context, _ int64) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("repo: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/trips/42", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

// ---- PATCH /trips/{id} -----------------------------------------------------

func TestUpdateTrip_200(t *testing.T) {
	var gotID int64
	var gotPatch domain.TripPatch
	svc := &mockTripServicer{
		updateFields: func(_ context.Context, id int64, patch domain.TripPatch) (domain.Trip, error) {
			gotID, gotPatch = id, patch
			trip := tripFixture(t)
			trip.Destination = "Campinas"
			return trip, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPatch, "/trips/3", jsonBody(t, map[string]any{"destino": "campinas"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), gotID)
	require.NotNil(t, gotPatch.Destination)
	assert.Equal(t, "campinas", *gotPatch.Destination)
	assert.Nil(t, gotPatch.StartKm)
}

func TestUpdateTrip_422_UnknownField(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPatch, "/trips/3",
		jsonBody(t, map[string]any{"km_final": 10}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		updateFields: func(_ context.Context, _ int64, _ domain.TripPatch) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPatch, "/trips/77", jsonBody(t, map[string]any{"destino": "x"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateTrip_404_NonNumericID(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPatch, "/trips/abc", jsonBody(t, map[string]any{"destino": "x"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- PUT /trips ------------------------------------------------------------

func TestReplaceTrips_200(t *testing.T) {
	var got []domain.TripRecord
	svc := &mockTripServicer{
		replaceAll: func(_ context.Context, records []domain.TripRecord) (service.ReplaceResult, error) {
			got = records
			return service.ReplaceResult{Kept: 1, Skipped: 1}, nil
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodPut, "/trips", bytes.NewBufferString(`[
		{"ID": 1, "data": "01/01/2024", "hora_inicial": "08:00", "km_inicial": 10, "hora_final": "N/A", "km_final": "N/A", "destino": "a", "total_km": 0, "tempo_levado": "N/A"},
		{"data": "bad"}
	]`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Reading("10"), got[0].StartKm)
	assert.JSONEq(t, `{"kept": 1, "skipped": 1}`, rec.Body.String())
}

func TestReplaceTrips_422_NotAnArray(t *testing.T) {
	rec := serve(newHTTPHandler(&mockTripServicer{}), http.MethodPut, "/trips", jsonBody(t, map[string]any{"data": "x"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
