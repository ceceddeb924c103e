package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-logbook/internal/domain"
)

// tripFixture returns an active trip departing 01/01/2024 08:00 at 1000 km.
func tripFixture(t *testing.T) domain.Trip {
	t.Helper()
	dep, ok := domain.ValidateDateTime("01/01/2024", "08:00")
	require.True(t, ok)
	return domain.NewTrip("01/01/2024", dep, 1000, "São Paulo")
}

func at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	ts, ok := domain.ValidateDateTime(date, clock)
	require.True(t, ok)
	return ts
}

func TestNewTrip_IsActive(t *testing.T) {
	trip := tripFixture(t)

	assert.True(t, trip.IsActive())
	assert.Nil(t, trip.Arrival)
	assert.Nil(t, trip.EndKm)
	assert.Equal(t, 0, trip.Distance())
	assert.Equal(t, "N/A", trip.Duration())
	assert.Equal(t, "N/A", trip.ArrivalTime())
}

func TestTrip_Finish(t *testing.T) {
	trip := tripFixture(t)

	trip.Finish(at(t, "01/01/2024", "09:15"), 1120)

	assert.False(t, trip.IsActive())
	assert.Equal(t, 120, trip.Distance())
	assert.Equal(t, "01:15", trip.Duration())
	assert.Equal(t, "09:15", trip.ArrivalTime())
}

func TestTrip_Duration(t *testing.T) {
	cases := []struct {
		departure, arrival string
		want               string
	}{
		{"09:00", "10:30", "01:30"},
		{"08:00", "08:00", "00:00"},
		{"23:00", "01:00", "02:00"}, // overnight, arrival on the same recorded date
		{"00:00", "23:59", "23:59"},
	}
	for _, tc := range cases {
		trip := domain.NewTrip("10/05/2024", at(t, "10/05/2024", tc.departure), 0, "X")
		trip.Finish(at(t, "10/05/2024", tc.arrival), 10)
		assert.Equal(t, tc.want, trip.Duration(), "%s → %s", tc.departure, tc.arrival)
	}
}

func TestTrip_ToRecord_Finished(t *testing.T) {
	trip := tripFixture(t)
	trip.ID = 9
	trip.Finish(at(t, "01/01/2024", "09:15"), 1120)

	rec := trip.ToRecord(3)

	assert.Equal(t, domain.TripRecord{
		ID:            3,
		Date:          "01/01/2024",
		DepartureTime: "08:00",
		StartKm:       "1000",
		ArrivalTime:   "09:15",
		EndKm:         "1120",
		Destination:   "São Paulo",
		Distance:      120,
		Duration:      "01:15",
	}, rec)
}

func TestTripRecord_JSONShape(t *testing.T) {
	rec := tripFixture(t).ToRecord(1)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.EqualValues(t, 1, got["ID"])
	assert.Equal(t, "01/01/2024", got["data"])
	assert.Equal(t, "08:00", got["hora_inicial"])
	assert.EqualValues(t, 1000, got["km_inicial"])
	assert.Equal(t, "N/A", got["hora_final"])
	assert.Equal(t, "N/A", got["km_final"])
	assert.Equal(t, "São Paulo", got["destino"])
	assert.EqualValues(t, 0, got["total_km"])
	assert.Equal(t, "N/A", got["tempo_levado"])
}

func TestTripFromRecord_RoundTrip(t *testing.T) {
	trip := tripFixture(t)
	trip.ID = 4
	trip.Finish(at(t, "01/01/2024", "09:15"), 1120)

	got, err := domain.TripFromRecord(trip.ToRecord(4))

	require.NoError(t, err)
	assert.Equal(t, trip, got)
}

func TestTripFromRecord_AcceptsNumericStrings(t *testing.T) {
	var rec domain.TripRecord
	raw := `{"ID":1,"data":"02/02/2024","hora_inicial":"07:00","km_inicial":"500","hora_final":"08:00","km_final":550.0,"destino":"campinas"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	got, err := domain.TripFromRecord(rec)

	require.NoError(t, err)
	assert.Equal(t, 500, got.StartKm)
	require.NotNil(t, got.EndKm)
	assert.Equal(t, 550, *got.EndKm)
	assert.Equal(t, "Campinas", got.Destination)
}

func TestTripFromRecord_Invalid(t *testing.T) {
	valid := domain.TripRecord{
		Date: "01/01/2024", DepartureTime: "08:00", StartKm: "100",
		ArrivalTime: "09:00", EndKm: "150", Destination: "Santos",
	}
	cases := map[string]func(r *domain.TripRecord){
		"bad date":           func(r *domain.TripRecord) { r.Date = "2024-01-01" },
		"bad departure":      func(r *domain.TripRecord) { r.DepartureTime = "8h" },
		"negative start km":  func(r *domain.TripRecord) { r.StartKm = "-1" },
		"empty destination":  func(r *domain.TripRecord) { r.Destination = "   " },
		"bad arrival":        func(r *domain.TripRecord) { r.ArrivalTime = "25:00" },
		"missing end km":     func(r *domain.TripRecord) { r.EndKm = "N/A" },
		"end below start":    func(r *domain.TripRecord) { r.EndKm = "99" },
		"end km, no arrival": func(r *domain.TripRecord) { r.ArrivalTime = "N/A" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := valid
			mutate(&rec)
			_, err := domain.TripFromRecord(rec)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestTripFromRecord_ActiveRecord(t *testing.T) {
	got, err := domain.TripFromRecord(domain.TripRecord{
		Date: "01/01/2024", DepartureTime: "08:00", StartKm: "100",
		ArrivalTime: "N/A", EndKm: "N/A", Destination: "Santos",
	})

	require.NoError(t, err)
	assert.True(t, got.IsActive())
}
