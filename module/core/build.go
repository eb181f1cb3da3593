package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	handler "github.com/adanlessossi-kanli/tacho/module/core/internal/handler/http"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/handler/subscriber"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/handler/ws"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/registry"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/publisher/rabbitmq"
	"github.com/adanlessossi-kanli/tacho/module/core/internal/repository/store/postgres"
	"github.com/adanlessossi-kanli/tacho/module/core/service"
)

type Config struct {
	SubscriberBuffer int
	IdleWindow       time.Duration
	SweepInterval    time.Duration
}

type Module struct {
	Dispatcher *service.LocationDispatcher
	Registry   *registry.Registry

	tripHandler *handler.TripHandler
	hub         *ws.TripHub
	subscriber  *subscriber.LocationSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, cfg Config) (*Module, error) {
	tripStore := postgres.NewTripStore(db)

	notifier, err := rabbitmq.NewNotifier(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}

	reg := registry.New()
	dispatcher := service.NewLocationDispatcher(reg, tripStore, notifier, service.DispatcherConfig{
		IdleWindow:    cfg.IdleWindow,
		SweepInterval: cfg.SweepInterval,
	})

	return &Module{
		Dispatcher:  dispatcher,
		Registry:    reg,
		tripHandler: handler.NewTripHandler(dispatcher),
		hub:         ws.NewTripHub(reg, cfg.SubscriberBuffer),
		subscriber:  subscriber.NewLocationSubscriber(mqttClient, dispatcher),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.tripHandler.Register(r)
	m.hub.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// RunSweeper blocks until ctx is done; run it on its own goroutine.
func (m *Module) RunSweeper(ctx context.Context) {
	m.Dispatcher.RunSweeper(ctx)
}
