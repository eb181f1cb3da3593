package service

import (
	"errors"
	"math"
	"testing"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

var (
	sanFrancisco = domain.Coordinate{Lat: 37.7749, Lon: -122.4194}
	sanJose      = domain.Coordinate{Lat: 37.3382, Lon: -121.8863}
	jakarta      = domain.Coordinate{Lat: -6.2088, Lon: 106.8456}
)

func TestDistanceKm_SamePoint(t *testing.T) {
	if d := DistanceKm(jakarta, jakarta); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	ab := DistanceKm(sanFrancisco, sanJose)
	ba := DistanceKm(sanJose, sanFrancisco)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("expected symmetric distances, got %f and %f", ab, ba)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// San Francisco to San Jose is roughly 68 km great-circle
	d := DistanceKm(sanFrancisco, sanJose)
	if d < 67.0 || d > 68.2 {
		t.Errorf("expected ~67.6 km, got %f", d)
	}
}

func TestTotalDistanceKm(t *testing.T) {
	if d := TotalDistanceKm(nil); d != 0 {
		t.Errorf("expected 0 for no points, got %f", d)
	}
	if d := TotalDistanceKm([]domain.Coordinate{sanFrancisco}); d != 0 {
		t.Errorf("expected 0 for one point, got %f", d)
	}

	leg := DistanceKm(sanFrancisco, sanJose)
	total := TotalDistanceKm([]domain.Coordinate{sanFrancisco, sanJose, sanFrancisco})
	if math.Abs(total-2*leg) > 1e-9 {
		t.Errorf("expected %f, got %f", 2*leg, total)
	}
}

func TestEstimateEtaMinutes(t *testing.T) {
	// ~68 km at 50 km/h is ~81 minutes
	eta, err := EstimateEtaMinutes(sanFrancisco, sanJose, DefaultAvgSpeedKmh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eta < 79 || eta > 83 {
		t.Errorf("expected ~81 minutes, got %f", eta)
	}
	if eta != math.Round(eta) {
		t.Errorf("expected whole minutes, got %f", eta)
	}
}

func TestEstimateEtaMinutes_ZeroDistance(t *testing.T) {
	eta, err := EstimateEtaMinutes(jakarta, jakarta, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eta != 0 {
		t.Errorf("expected 0, got %f", eta)
	}
}

func TestEstimateEtaMinutes_InvalidSpeed(t *testing.T) {
	for _, speed := range []float64{0, -10} {
		_, err := EstimateEtaMinutes(sanFrancisco, sanJose, speed)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("speed %f: expected ErrInvalidArgument, got %v", speed, err)
		}
	}
}

func TestIsWithinRadius(t *testing.T) {
	if !IsWithinRadius(jakarta, jakarta, 0) {
		t.Error("expected point at center within zero radius (inclusive boundary)")
	}
	if !IsWithinRadius(sanFrancisco, sanJose, 70) {
		t.Error("expected SF within 70 km of SJ")
	}
	if IsWithinRadius(sanFrancisco, sanJose, 5) {
		t.Error("expected SF outside 5 km of SJ")
	}
}
