package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
)

const topicPattern = "/fleet/trip/+/location"

type positionDispatcher interface {
	ReportPosition(ctx context.Context, tripID string, coord domain.Coordinate, observedAt time.Time) (domain.PositionEvent, error)
}

type locationMessage struct {
	TripID    string  `json:"trip_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// LocationSubscriber feeds producer reports from MQTT into the dispatcher.
// MQTT producers have no reply channel, so rejected reports are logged and
// dropped.
type LocationSubscriber struct {
	client     mqtt.Client
	dispatcher positionDispatcher
}

func NewLocationSubscriber(client mqtt.Client, dispatcher positionDispatcher) *LocationSubscriber {
	return &LocationSubscriber{
		client:     client,
		dispatcher: dispatcher,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid location message: %v", err)
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	coord := domain.Coordinate{Lat: raw.Latitude, Lon: raw.Longitude}
	if _, err := s.dispatcher.ReportPosition(context.Background(), raw.TripID, coord, time.Unix(raw.Timestamp, 0)); err != nil {
		log.Printf("report position error: %v", err)
	}
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.TripID == "" {
		return fmt.Errorf("trip_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
