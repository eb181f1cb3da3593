package service

import (
	"fmt"
	"math"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

const earthRadiusKm = 6371.0

// DefaultAvgSpeedKmh is assumed when a caller supplies no average speed.
const DefaultAvgSpeedKmh = 50.0

// DistanceKm returns the great-circle (haversine) distance in kilometers.
func DistanceKm(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TotalDistanceKm sums consecutive pairwise distances; 0 for fewer than two
// points.
func TotalDistanceKm(points []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// EstimateEtaMinutes returns distance over average speed, rounded to the
// nearest whole minute.
func EstimateEtaMinutes(current, destination domain.Coordinate, avgSpeedKmh float64) (float64, error) {
	if avgSpeedKmh <= 0 {
		return 0, fmt.Errorf("%w: average speed must be positive", domain.ErrInvalidArgument)
	}
	return math.Round(DistanceKm(current, destination) / avgSpeedKmh * 60), nil
}

// IsWithinRadius reports whether point lies within radiusKm of center, the
// boundary inclusive.
func IsWithinRadius(point, center domain.Coordinate, radiusKm float64) bool {
	return DistanceKm(point, center) <= radiusKm
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
