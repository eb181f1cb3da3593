package service

import (
	"fmt"
	"time"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

// TripPositionHistory holds the ordered samples reported for one trip. It
// is not synchronized; the dispatcher serializes access per trip.
type TripPositionHistory struct {
	samples []domain.PositionSample
}

func NewTripPositionHistory() *TripPositionHistory {
	return &TripPositionHistory{}
}

// Append rejects any sample that does not advance the trip's clock. A
// duplicate timestamp is rejected, not reapplied, so distance accumulation
// stays monotonic.
func (h *TripPositionHistory) Append(sample domain.PositionSample) error {
	if n := len(h.samples); n > 0 && !sample.ObservedAt.After(h.samples[n-1].ObservedAt) {
		return fmt.Errorf("%w: sample at %s does not advance past last stored sample",
			domain.ErrInvalidState, sample.ObservedAt.Format(time.RFC3339))
	}
	h.samples = append(h.samples, sample)
	return nil
}

func (h *TripPositionHistory) TotalDistanceKm() float64 {
	if len(h.samples) < 2 {
		return 0
	}
	points := make([]domain.Coordinate, len(h.samples))
	for i, s := range h.samples {
		points[i] = s.Coordinate
	}
	return TotalDistanceKm(points)
}

func (h *TripPositionHistory) Latest() (domain.Coordinate, bool) {
	if len(h.samples) == 0 {
		return domain.Coordinate{}, false
	}
	return h.samples[len(h.samples)-1].Coordinate, true
}

func (h *TripPositionHistory) Len() int {
	return len(h.samples)
}
