package service

import "github.com/adanlessossi-kanli/tacho/module/core/domain"

type TransitionResult struct {
	Transition domain.Transition
	NowInside  bool
}

// ClassifyTransition detects geofence entry and exit against the stored
// inside/outside state, not the raw previous coordinate, so a large jump
// from far outside straight into a fence still reads as an enter. known is
// false when the (trip, fence) pair has never been evaluated; the first
// observation only establishes the baseline and never reports a transition.
func ClassifyTransition(current domain.Coordinate, fence domain.GeofenceDefinition, wasInside, known bool) TransitionResult {
	nowInside := IsWithinRadius(current, fence.Center, fence.RadiusKm)
	if !known {
		return TransitionResult{Transition: domain.TransitionNone, NowInside: nowInside}
	}
	switch {
	case !wasInside && nowInside:
		return TransitionResult{Transition: domain.TransitionEnter, NowInside: true}
	case wasInside && !nowInside:
		return TransitionResult{Transition: domain.TransitionExit, NowInside: false}
	default:
		return TransitionResult{Transition: domain.TransitionNone, NowInside: nowInside}
	}
}
