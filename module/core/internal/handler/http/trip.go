package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
	"github.com/adanlessossi-kanli/tacho/module/core/service"
)

type tripDispatcher interface {
	ReportPosition(ctx context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error)
	RegisterGeofence(tripID string, fence domain.GeofenceDefinition) error
	UnregisterGeofence(tripID, fenceID string)
	EndTrip(ctx context.Context, tripID string)
	TotalDistanceKm(tripID string) (float64, error)
	EtaMinutes(tripID string, destination domain.Coordinate, avgSpeedKmh float64) (float64, error)
}

type reportRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"` // RFC3339, optional
}

type geofenceRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

type TripHandler struct {
	dispatcher tripDispatcher
}

func NewTripHandler(dispatcher tripDispatcher) *TripHandler {
	return &TripHandler{dispatcher: dispatcher}
}

func (h *TripHandler) Register(r *gin.RouterGroup) {
	r.POST("/trips/:trip_id/location", h.ReportLocation)
	r.GET("/trips/:trip_id/distance", h.GetDistance)
	r.GET("/trips/:trip_id/eta", h.GetEta)
	r.POST("/trips/:trip_id/geofences", h.RegisterGeofence)
	r.DELETE("/trips/:trip_id/geofences/:geofence_id", h.UnregisterGeofence)
	r.POST("/trips/:trip_id/end", h.EndTrip)
}

func (h *TripHandler) ReportLocation(c *gin.Context) {
	tripID := c.Param("trip_id")

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var observedAt time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be RFC3339"})
			return
		}
		observedAt = parsed
	}

	coord := domain.Coordinate{Lat: req.Latitude, Lon: req.Longitude}
	event, err := h.dispatcher.ReportPosition(c.Request.Context(), tripID, coord, observedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to report position"})
		}
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *TripHandler) GetDistance(c *gin.Context) {
	tripID := c.Param("trip_id")

	distance, err := h.dispatcher.TotalDistanceKm(tripID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "total_distance_km": distance})
}

func (h *TripHandler) GetEta(c *gin.Context) {
	tripID := c.Param("trip_id")

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat parameter"})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon parameter"})
		return
	}

	speed := service.DefaultAvgSpeedKmh
	if raw := c.Query("speed"); raw != "" {
		speed, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid speed parameter"})
			return
		}
	}

	eta, err := h.dispatcher.EtaMinutes(tripID, domain.Coordinate{Lat: lat, Lon: lon}, speed)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "eta_minutes": eta})
}

func (h *TripHandler) RegisterGeofence(c *gin.Context) {
	tripID := c.Param("trip_id")

	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	fence := domain.GeofenceDefinition{
		ID:       req.ID,
		Name:     req.Name,
		Center:   domain.Coordinate{Lat: req.Latitude, Lon: req.Longitude},
		RadiusKm: req.RadiusKm,
	}
	if err := h.dispatcher.RegisterGeofence(tripID, fence); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register geofence"})
		}
		return
	}

	c.JSON(http.StatusCreated, fence)
}

func (h *TripHandler) UnregisterGeofence(c *gin.Context) {
	h.dispatcher.UnregisterGeofence(c.Param("trip_id"), c.Param("geofence_id"))
	c.Status(http.StatusNoContent)
}

func (h *TripHandler) EndTrip(c *gin.Context) {
	h.dispatcher.EndTrip(c.Request.Context(), c.Param("trip_id"))
	c.Status(http.StatusNoContent)
}
