package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/adanlessossi-kanli/tacho/module/core/domain"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/publisher"
)

var _ publisher.Notifier = (*Notifier)(nil)

const (
	exchangeName = "fleet.events"
	queueName    = "geofence_alerts"
)

type Notifier struct {
	ch *amqp.Channel
}

func NewNotifier(conn *amqp.Connection) (*Notifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Notifier{ch: ch}, nil
}

type geofenceMessage struct {
	Event        string `json:"event"`
	TripID       string `json:"trip_id"`
	GeofenceID   string `json:"geofence_id"`
	GeofenceName string `json:"geofence_name"`
}

type tripStatusMessage struct {
	Event  string            `json:"event"`
	TripID string            `json:"trip_id"`
	Status domain.TripStatus `json:"status"`
}

func (n *Notifier) PublishGeofenceEvent(ctx context.Context, event *domain.GeofenceEvent) error {
	msg := geofenceMessage{
		Event:        "geofence_" + string(event.Transition),
		TripID:       event.TripID,
		GeofenceID:   event.GeofenceID,
		GeofenceName: event.GeofenceName,
	}
	return n.publish(ctx, msg)
}

func (n *Notifier) PublishTripStatus(ctx context.Context, tripID string, status domain.TripStatus) error {
	msg := tripStatusMessage{
		Event:  "trip_status",
		TripID: tripID,
		Status: status,
	}
	return n.publish(ctx, msg)
}

func (n *Notifier) publish(ctx context.Context, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return n.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
