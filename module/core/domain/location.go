package domain

import (
	"fmt"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidArgument)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidArgument)
	}
	return nil
}

type PositionSample struct {
	TripID     string
	Coordinate Coordinate
	ObservedAt time.Time
}

const (
	EventTypeLocation = "location"
	EventTypeGeofence = "geofence"
)

type PositionEvent struct {
	Type      string    `json:"type"`
	TripID    string    `json:"trip_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPositionEvent(sample PositionSample) PositionEvent {
	return PositionEvent{
		Type:      EventTypeLocation,
		TripID:    sample.TripID,
		Latitude:  sample.Coordinate.Lat,
		Longitude: sample.Coordinate.Lon,
		Timestamp: sample.ObservedAt,
	}
}

type TripStatus string

const (
	TripStatusStarted   TripStatus = "started"
	TripStatusCompleted TripStatus = "completed"
	TripStatusDelayed   TripStatus = "delayed"
)
