package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/registry"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/publisher"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/store"
)

type DispatcherConfig struct {
	// IdleWindow is how long a trip may go without a report before the
	// sweeper may evict its history and fence state.
	IdleWindow time.Duration
	// SweepInterval is how often the sweeper runs.
	SweepInterval time.Duration
}

const (
	defaultIdleWindow    = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// tripState is everything the dispatcher owns for one trip. All fields are
// guarded by mu; concurrent reports for the same trip serialize here while
// distinct trips proceed in parallel.
type tripState struct {
	mu       sync.Mutex
	history  *TripPositionHistory
	fences   map[string]domain.GeofenceDefinition
	inside   map[string]bool // fence id -> last classification; absent until first evaluation
	loaded   bool            // stored geofences resolved
	lastSeen time.Time
	ended    bool
}

func (ts *tripState) release() {
	ts.ended = true
	ts.history = nil
	ts.fences = nil
	ts.inside = nil
}

// LocationDispatcher accepts position reports, keeps per-trip history and
// geofence state, and fans events out to the subscribers attached to the
// reported trip.
type LocationDispatcher struct {
	registry *registry.Registry
	store    store.TripStore    // optional
	notifier publisher.Notifier // optional
	cfg      DispatcherConfig
	now      func() time.Time

	mu    sync.RWMutex
	trips map[string]*tripState
}

func NewLocationDispatcher(reg *registry.Registry, trips store.TripStore, notifier publisher.Notifier, cfg DispatcherConfig) *LocationDispatcher {
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = defaultIdleWindow
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	return &LocationDispatcher{
		registry: reg,
		store:    trips,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		trips:    make(map[string]*tripState),
	}
}

// ReportPosition timestamps and stores one producer report, evaluates the
// trip's geofences, and delivers the resulting events to the trip's current
// subscribers. A zero observedAt defaults to now.
func (d *LocationDispatcher) ReportPosition(ctx context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error) {
	if tripID == "" {
		return domain.PositionEvent{}, fmt.Errorf("%w: trip id required", domain.ErrInvalidArgument)
	}
	if err := coord.Validate(); err != nil {
		return domain.PositionEvent{}, err
	}
	if observedAt.IsZero() {
		observedAt = d.now()
	}

	ts := d.tripFor(tripID)
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.ended && !ts.loaded {
		ts.loaded = true
		d.resolveStoredTrip(ctx, tripID, ts)
	}
	if ts.ended {
		return domain.PositionEvent{}, fmt.Errorf("%w: trip %s has ended", domain.ErrInvalidState, tripID)
	}

	sample := domain.PositionSample{TripID: tripID, Coordinate: coord, ObservedAt: observedAt}
	if err := ts.history.Append(sample); err != nil {
		return domain.PositionEvent{}, err
	}
	ts.lastSeen = d.now()

	event := domain.NewPositionEvent(sample)
	var fenceEvents []domain.GeofenceEvent
	for id, fence := range ts.fences {
		wasInside, known := ts.inside[id]
		result := ClassifyTransition(coord, fence, wasInside, known)
		ts.inside[id] = result.NowInside
		if result.Transition != domain.TransitionNone {
			fenceEvents = append(fenceEvents, domain.GeofenceEvent{
				Type:         domain.EventTypeGeofence,
				TripID:       tripID,
				GeofenceID:   id,
				GeofenceName: fence.Name,
				Transition:   result.Transition,
			})
		}
	}

	// Delivered under the trip lock so subscribers see events in the same
	// order as the stored history. Enqueue never blocks.
	for _, h := range d.registry.SubscribersOf(tripID) {
		h.Enqueue(event)
		for i := range fenceEvents {
			h.Enqueue(fenceEvents[i])
		}
	}

	for i := range fenceEvents {
		d.notifyGeofence(ctx, &fenceEvents[i])
	}
	return event, nil
}

// RegisterGeofence adds or replaces a fence in the trip's active set.
// Re-registering resets the fence's baseline state.
func (d *LocationDispatcher) RegisterGeofence(tripID string, fence domain.GeofenceDefinition) error {
	if tripID == "" {
		return fmt.Errorf("%w: trip id required", domain.ErrInvalidArgument)
	}
	if err := fence.Validate(); err != nil {
		return err
	}

	ts := d.tripFor(tripID)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.ended {
		return fmt.Errorf("%w: trip %s has ended", domain.ErrInvalidState, tripID)
	}
	ts.fences[fence.ID] = fence
	delete(ts.inside, fence.ID)
	return nil
}

func (d *LocationDispatcher) UnregisterGeofence(tripID, fenceID string) {
	ts := d.lookup(tripID)
	if ts == nil {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.ended {
		return
	}
	delete(ts.fences, fenceID)
	delete(ts.inside, fenceID)
}

// EndTrip releases the trip's history and fence state and rejects any later
// report for it. Subscribers stay attached; they simply stop receiving
// events for the trip id.
func (d *LocationDispatcher) EndTrip(ctx context.Context, tripID string) {
	ts := d.tripFor(tripID)
	ts.mu.Lock()
	alreadyEnded := ts.ended
	ts.release()
	ts.lastSeen = d.now()
	ts.mu.Unlock()

	if alreadyEnded || d.notifier == nil {
		return
	}
	if err := d.notifier.PublishTripStatus(ctx, tripID, domain.TripStatusCompleted); err != nil {
		log.Printf("trip %s status notify: %v", tripID, err)
	}
}

func (d *LocationDispatcher) TotalDistanceKm(tripID string) (float64, error) {
	ts, err := d.activeTrip(tripID)
	if err != nil {
		return 0, err
	}
	defer ts.mu.Unlock()
	return ts.history.TotalDistanceKm(), nil
}

func (d *LocationDispatcher) LatestPosition(tripID string) (domain.Coordinate, error) {
	ts, err := d.activeTrip(tripID)
	if err != nil {
		return domain.Coordinate{}, err
	}
	defer ts.mu.Unlock()
	coord, ok := ts.history.Latest()
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("%w: trip %s has no positions", domain.ErrInvalidState, tripID)
	}
	return coord, nil
}

func (d *LocationDispatcher) EtaMinutes(tripID string, destination domain.Coordinate, avgSpeedKmh float64) (float64, error) {
	if err := destination.Validate(); err != nil {
		return 0, err
	}
	current, err := d.LatestPosition(tripID)
	if err != nil {
		return 0, err
	}
	return EstimateEtaMinutes(current, destination, avgSpeedKmh)
}

// RunSweeper evicts trips that have been idle past the configured window
// and releases trips the record store reports as ended. Blocks until ctx is
// done.
func (d *LocationDispatcher) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *LocationDispatcher) sweep(ctx context.Context) {
	cutoff := d.now().Add(-d.cfg.IdleWindow)

	d.mu.RLock()
	ids := make([]string, 0, len(d.trips))
	for id := range d.trips {
		ids = append(ids, id)
	}
	d.mu.RUnlock()

	var live []string
	for _, id := range ids {
		d.mu.Lock()
		ts := d.trips[id]
		if ts == nil {
			d.mu.Unlock()
			continue
		}
		// A held trip lock means a report is in flight; the trip is not
		// idle, skip it this round.
		if !ts.mu.TryLock() {
			d.mu.Unlock()
			continue
		}
		if ts.ended || !ts.lastSeen.After(cutoff) {
			delete(d.trips, id)
		} else {
			live = append(live, id)
		}
		ts.mu.Unlock()
		d.mu.Unlock()
	}

	if d.store == nil {
		return
	}
	for _, id := range live {
		ended, err := d.store.IsTripEnded(ctx, id)
		if err != nil {
			log.Printf("sweep: trip %s store check: %v", id, err)
			continue
		}
		if ended {
			if ts := d.lookup(id); ts != nil {
				ts.mu.Lock()
				ts.release()
				ts.mu.Unlock()
			}
		}
	}
}

func (d *LocationDispatcher) tripFor(tripID string) *tripState {
	d.mu.RLock()
	ts := d.trips[tripID]
	d.mu.RUnlock()
	if ts != nil {
		return ts
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if ts = d.trips[tripID]; ts == nil {
		ts = &tripState{
			history:  NewTripPositionHistory(),
			fences:   make(map[string]domain.GeofenceDefinition),
			inside:   make(map[string]bool),
			lastSeen: d.now(),
		}
		d.trips[tripID] = ts
	}
	return ts
}

func (d *LocationDispatcher) lookup(tripID string) *tripState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trips[tripID]
}

// activeTrip returns the trip's state with its lock held, or an error when
// the trip is unknown or ended.
func (d *LocationDispatcher) activeTrip(tripID string) (*tripState, error) {
	ts := d.lookup(tripID)
	if ts == nil {
		return nil, fmt.Errorf("%w: unknown trip %s", domain.ErrInvalidState, tripID)
	}
	ts.mu.Lock()
	if ts.ended {
		ts.mu.Unlock()
		return nil, fmt.Errorf("%w: trip %s has ended", domain.ErrInvalidState, tripID)
	}
	return ts, nil
}

// resolveStoredTrip runs once per trip, on its first report: pulls any
// externally persisted geofences and the trip-ended flag. Store failures
// are logged and the report proceeds with whatever is registered locally.
func (d *LocationDispatcher) resolveStoredTrip(ctx context.Context, tripID string, ts *tripState) {
	if d.store == nil {
		return
	}
	ended, err := d.store.IsTripEnded(ctx, tripID)
	if err != nil {
		log.Printf("trip %s ended check: %v", tripID, err)
	} else if ended {
		ts.release()
		return
	}

	fences, err := d.store.GetGeofencesForTrip(ctx, tripID)
	if err != nil {
		log.Printf("trip %s geofence load: %v", tripID, err)
		return
	}
	for _, fence := range fences {
		if _, exists := ts.fences[fence.ID]; !exists {
			ts.fences[fence.ID] = fence
		}
	}
}

func (d *LocationDispatcher) notifyGeofence(ctx context.Context, event *domain.GeofenceEvent) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.PublishGeofenceEvent(ctx, event); err != nil {
		log.Printf("trip %s geofence notify: %v", event.TripID, err)
	}
}
