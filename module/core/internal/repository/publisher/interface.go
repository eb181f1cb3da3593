package publisher

import (
	"context"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

// Notifier receives geofence and trip-status events. It owns the delivery
// channel and any retry policy; the core never waits on it.
type Notifier interface {
	PublishGeofenceEvent(ctx context.Context, event *domain.GeofenceEvent) error
	PublishTripStatus(ctx context.Context, tripID string, status domain.TripStatus) error
}
