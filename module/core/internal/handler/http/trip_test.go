package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

type mockTripDispatcher struct {
	reportFn     func(ctx context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error)
	registerFn   func(tripID string, fence domain.GeofenceDefinition) error
	unregisterFn func(tripID, fenceID string)
	endFn        func(ctx context.Context, tripID string)
	distanceFn   func(tripID string) (float64, error)
	etaFn        func(tripID string, destination domain.Coordinate, avgSpeedKmh float64) (float64, error)
}

func (m *mockTripDispatcher) ReportPosition(ctx context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error) {
	return m.reportFn(ctx, tripID, coord, observedAt)
}

func (m *mockTripDispatcher) RegisterGeofence(tripID string, fence domain.GeofenceDefinition) error {
	return m.registerFn(tripID, fence)
}

func (m *mockTripDispatcher) UnregisterGeofence(tripID, fenceID string) {
	m.unregisterFn(tripID, fenceID)
}

func (m *mockTripDispatcher) EndTrip(ctx context.Context, tripID string) {
	m.endFn(ctx, tripID)
}

func (m *mockTripDispatcher) TotalDistanceKm(tripID string) (float64, error) {
	return m.distanceFn(tripID)
}

func (m *mockTripDispatcher) EtaMinutes(tripID string, destination domain.Coordinate, avgSpeedKmh float64) (float64, error) {
	return m.etaFn(tripID, destination, avgSpeedKmh)
}

func setupRouter(disp tripDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTripHandler(disp)
	h.Register(r.Group(""))
	return r
}

func TestReportLocation_Success(t *testing.T) {
	disp := &mockTripDispatcher{
		reportFn: func(_ context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error) {
			if tripID != "trip-1" {
				t.Fatalf("unexpected tripID: %s", tripID)
			}
			if !observedAt.Equal(time.Date(2024, 5, 6, 12, 30, 56, 0, time.UTC)) {
				t.Fatalf("unexpected observedAt: %v", observedAt)
			}
			return domain.NewPositionEvent(domain.PositionSample{
				TripID: tripID, Coordinate: coord, ObservedAt: observedAt,
			}), nil
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"latitude":37.7749,"longitude":-122.4194,"timestamp":"2024-05-06T12:30:56Z"}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/location", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp domain.PositionEvent
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Type != domain.EventTypeLocation {
		t.Errorf("expected location event, got %s", resp.Type)
	}
	if resp.Latitude != 37.7749 {
		t.Errorf("expected 37.7749, got %f", resp.Latitude)
	}
}

func TestReportLocation_InvalidBody(t *testing.T) {
	disp := &mockTripDispatcher{}
	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/trips/trip-1/location", strings.NewReader("not json"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReportLocation_InvalidTimestamp(t *testing.T) {
	disp := &mockTripDispatcher{}
	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"latitude":1,"longitude":1,"timestamp":"yesterday"}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/location", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReportLocation_InvalidArgument(t *testing.T) {
	disp := &mockTripDispatcher{
		reportFn: func(_ context.Context, _ string, _ domain.Coordinate, _ time.Time) (domain.PositionEvent, error) {
			return domain.PositionEvent{}, fmt.Errorf("%w: latitude out of range", domain.ErrInvalidArgument)
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"latitude":99,"longitude":0}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/location", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestReportLocation_OutOfOrder(t *testing.T) {
	disp := &mockTripDispatcher{
		reportFn: func(_ context.Context, _ string, _ domain.Coordinate, _ time.Time) (domain.PositionEvent, error) {
			return domain.PositionEvent{}, fmt.Errorf("%w: out of order", domain.ErrInvalidState)
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"latitude":1,"longitude":1}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/location", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestGetDistance_Success(t *testing.T) {
	disp := &mockTripDispatcher{
		distanceFn: func(tripID string) (float64, error) {
			if tripID != "trip-1" {
				t.Fatalf("unexpected tripID: %s", tripID)
			}
			return 67.6, nil
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/trips/trip-1/distance", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		TripID          string  `json:"trip_id"`
		TotalDistanceKm float64 `json:"total_distance_km"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TotalDistanceKm != 67.6 {
		t.Errorf("expected 67.6, got %f", resp.TotalDistanceKm)
	}
}

func TestGetDistance_UnknownTrip(t *testing.T) {
	disp := &mockTripDispatcher{
		distanceFn: func(_ string) (float64, error) {
			return 0, fmt.Errorf("%w: unknown trip", domain.ErrInvalidState)
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/trips/nope/distance", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetEta_Success(t *testing.T) {
	disp := &mockTripDispatcher{
		etaFn: func(_ string, destination domain.Coordinate, avgSpeedKmh float64) (float64, error) {
			if destination.Lat != 37.3382 || destination.Lon != -121.8863 {
				t.Fatalf("unexpected destination %+v", destination)
			}
			if avgSpeedKmh != 60 {
				t.Fatalf("expected speed 60, got %f", avgSpeedKmh)
			}
			return 68, nil
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/trips/trip-1/eta?lat=37.3382&lon=-121.8863&speed=60", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetEta_DefaultSpeed(t *testing.T) {
	disp := &mockTripDispatcher{
		etaFn: func(_ string, _ domain.Coordinate, avgSpeedKmh float64) (float64, error) {
			if avgSpeedKmh != 50 {
				t.Fatalf("expected default speed 50, got %f", avgSpeedKmh)
			}
			return 81, nil
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/trips/trip-1/eta?lat=37.3382&lon=-121.8863", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetEta_InvalidParams(t *testing.T) {
	disp := &mockTripDispatcher{}
	r := setupRouter(disp)

	for _, query := range []string{"", "?lat=abc&lon=1", "?lat=1&lon=abc", "?lat=1&lon=1&speed=abc"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/trips/trip-1/eta"+query, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, w.Code)
		}
	}
}

func TestRegisterGeofence_Success(t *testing.T) {
	var registered domain.GeofenceDefinition
	disp := &mockTripDispatcher{
		registerFn: func(tripID string, fence domain.GeofenceDefinition) error {
			if tripID != "trip-1" {
				t.Fatalf("unexpected tripID: %s", tripID)
			}
			registered = fence
			return nil
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"id":"gf-1","name":"Depot","latitude":-6.2088,"longitude":106.8456,"radius_km":5}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/geofences", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if registered.ID != "gf-1" || registered.Center.Lat != -6.2088 || registered.RadiusKm != 5 {
		t.Errorf("unexpected fence %+v", registered)
	}
}

func TestRegisterGeofence_Invalid(t *testing.T) {
	disp := &mockTripDispatcher{
		registerFn: func(_ string, _ domain.GeofenceDefinition) error {
			return fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	body := `{"id":"gf-1","name":"Depot","latitude":0,"longitude":0,"radius_km":0}`
	req, _ := http.NewRequest("POST", "/trips/trip-1/geofences", strings.NewReader(body))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUnregisterGeofence(t *testing.T) {
	var gotTrip, gotFence string
	disp := &mockTripDispatcher{
		unregisterFn: func(tripID, fenceID string) {
			gotTrip, gotFence = tripID, fenceID
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/trips/trip-1/geofences/gf-1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotTrip != "trip-1" || gotFence != "gf-1" {
		t.Errorf("expected trip-1/gf-1, got %s/%s", gotTrip, gotFence)
	}
}

func TestEndTrip(t *testing.T) {
	var ended string
	disp := &mockTripDispatcher{
		endFn: func(_ context.Context, tripID string) {
			ended = tripID
		},
	}

	r := setupRouter(disp)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/trips/trip-1/end", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if ended != "trip-1" {
		t.Errorf("expected trip-1, got %s", ended)
	}
}
