package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type locationMessage struct {
	TripID    string  `json:"trip_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// Depot geofence used by the demo setup; trips drift toward and away from
// it so enter/exit transitions actually fire.
const (
	depotLat = -6.2088
	depotLon = 106.8456
)

type tripWalk struct {
	id  string
	lat float64
	lon float64
}

func randomTripID() string {
	return fmt.Sprintf("trip-%06d", rand.Intn(1000000))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-mock-publisher")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	trips := make([]*tripWalk, 5)
	for i := range trips {
		// start roughly 1-2 km out from the depot
		trips[i] = &tripWalk{
			id:  randomTripID(),
			lat: depotLat + (rand.Float64()-0.5)*0.03,
			lon: depotLon + (rand.Float64()-0.5)*0.03,
		}
	}

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)
	for _, t := range trips {
		log.Printf("trip: %s", t.id)
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		t := trips[rand.Intn(len(trips))]

		// drift toward the depot most of the time, wander otherwise
		if rand.Float64() < 0.7 {
			t.lat += (depotLat - t.lat) * 0.2
			t.lon += (depotLon - t.lon) * 0.2
		} else {
			t.lat += (rand.Float64() - 0.5) * 0.01
			t.lon += (rand.Float64() - 0.5) * 0.01
		}

		msg := locationMessage{
			TripID:    t.id,
			Latitude:  t.lat,
			Longitude: t.lon,
			Timestamp: time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		topic := fmt.Sprintf("/fleet/trip/%s/location", t.id)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", topic, payload)
	}
}
