package store

import (
	"context"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

// TripStore is the external record store. The core only reads from it: the
// geofences persisted for a trip, and whether the trip has been ended.
type TripStore interface {
	GetGeofencesForTrip(ctx context.Context, tripID string) ([]domain.GeofenceDefinition, error)
	IsTripEnded(ctx context.Context, tripID string) (bool, error)
}
