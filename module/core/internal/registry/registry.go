package registry

import (
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// Handle is the delivery target for one consumer connection. The core only
// enqueues events into it; the transport layer owns draining and closing.
type Handle struct {
	id      string
	events  chan any
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

func NewHandle(id string, buffer int) *Handle {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Handle{
		id:     id,
		events: make(chan any, buffer),
		done:   make(chan struct{}),
	}
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Events() <-chan any { return h.events }

// Done is closed when the handle is closed; readers of Events must select
// on it so a closed handle never strands a writer goroutine.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Dropped reports how many events were discarded because the buffer was
// full or the handle was already closed.
func (h *Handle) Dropped() uint64 { return h.dropped.Load() }

// Enqueue never blocks. A full buffer drops the event for this handle only;
// position streams are a latest-wins signal, not a guaranteed log.
func (h *Handle) Enqueue(event any) bool {
	select {
	case <-h.done:
		h.dropped.Add(1)
		return false
	default:
	}
	select {
	case h.events <- event:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// Close is idempotent. Callers must UnsubscribeAll the handle first so no
// in-flight dispatch keeps delivering into a dead sink.
func (h *Handle) Close() {
	h.once.Do(func() { close(h.done) })
}

// Registry maps trip ids to the set of currently attached handles. Dispatch
// reads snapshots; the transport layer subscribes and unsubscribes.
type Registry struct {
	mu    sync.RWMutex
	trips map[string]map[string]*Handle
	index map[string]map[string]struct{} // handle id -> trip ids
}

func New() *Registry {
	return &Registry{
		trips: make(map[string]map[string]*Handle),
		index: make(map[string]map[string]struct{}),
	}
}

// Subscribe is idempotent: attaching an already attached handle to the same
// trip is a no-op.
func (r *Registry) Subscribe(tripID string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.trips[tripID]
	if set == nil {
		set = make(map[string]*Handle)
		r.trips[tripID] = set
	}
	set[h.ID()] = h

	tripSet := r.index[h.ID()]
	if tripSet == nil {
		tripSet = make(map[string]struct{})
		r.index[h.ID()] = tripSet
	}
	tripSet[tripID] = struct{}{}
}

// UnsubscribeAll detaches the handle from every trip. Idempotent; called
// once per transport disconnect before the handle is closed.
func (r *Registry) UnsubscribeAll(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tripID := range r.index[h.ID()] {
		set := r.trips[tripID]
		delete(set, h.ID())
		if len(set) == 0 {
			delete(r.trips, tripID)
		}
	}
	delete(r.index, h.ID())
}

// SubscribersOf returns a point-in-time copy so delivery iterates safely
// while subscriptions churn.
func (r *Registry) SubscribersOf(tripID string) []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.trips[tripID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Handle, 0, len(set))
	for _, h := range set {
		out = append(out, h)
	}
	return out
}
