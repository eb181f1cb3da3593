package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/adanlessossi-kanli/tacho/module/core/internal/registry"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscribeMessage struct {
	Type   string `json:"type"`
	TripID string `json:"trip_id"`
}

// TripHub upgrades consumer connections and attaches them to the
// subscription registry. One registry handle per connection; a client may
// subscribe to any number of trips over it.
type TripHub struct {
	registry *registry.Registry
	buffer   int
}

func NewTripHub(reg *registry.Registry, buffer int) *TripHub {
	return &TripHub{registry: reg, buffer: buffer}
}

func (h *TripHub) Register(r *gin.RouterGroup) {
	r.GET("/ws", h.HandleConnection)
}

func (h *TripHub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	handle := registry.NewHandle(uuid.NewString(), h.buffer)
	// Detach before closing the handle so no in-flight dispatch delivers
	// into a dead sink.
	defer func() {
		h.registry.UnsubscribeAll(handle)
		handle.Close()
	}()

	go h.writer(conn, handle)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg subscribeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type != "subscribe" || msg.TripID == "" {
			continue
		}
		h.registry.Subscribe(msg.TripID, handle)
	}
}

// writer is the connection's only writing goroutine: events, pings, all of
// it. A write failure closes the connection, which unblocks the read loop
// and tears the subscription down.
func (h *TripHub) writer(conn *websocket.Conn, handle *registry.Handle) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-handle.Done():
			return
		case event := <-handle.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
