package domain

import "fmt"

type GeofenceDefinition struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Center   Coordinate `json:"center"`
	RadiusKm float64    `json:"radius_km"`
}

func (g GeofenceDefinition) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: geofence id required", ErrInvalidArgument)
	}
	if g.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidArgument)
	}
	return g.Center.Validate()
}

type Transition string

const (
	TransitionEnter Transition = "enter"
	TransitionExit  Transition = "exit"
	TransitionNone  Transition = "none"
)

type GeofenceEvent struct {
	Type         string     `json:"type"`
	TripID       string     `json:"trip_id"`
	GeofenceID   string     `json:"geofence_id"`
	GeofenceName string     `json:"geofence_name"`
	Transition   Transition `json:"transition"`
}
