// Package sockets implements the websocket fanout server. The API
// process publishes entity changes to a Redis channel; this process
// relays them to browser clients subscribed to the matching room.
package sockets

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boards_sockets_connections",
		Help: "Number of open websocket connections",
	})
	deliveredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boards_sockets_messages_delivered_total",
		Help: "Total number of messages delivered to clients",
	})
	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boards_sockets_messages_dropped_total",
		Help: "Total number of messages dropped due to slow clients",
	})
)

type envelope struct {
	room    string
	payload []byte
}

type subscription struct {
	client *Client
	room   string
	join   bool
}

// Hub tracks room membership and fans messages out to subscribers.
// All state is owned by the Run goroutine; clients talk to it over
// channels only.
type Hub struct {
	rooms map[string]map[*Client]struct{}

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	broadcast   chan envelope
	log         *zap.Logger
}

// NewHub creates a hub. Call Run before registering clients.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		broadcast:  make(chan envelope, 256),
		log:        log,
	}
}

// Broadcast queues a message for every client subscribed to the room.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.broadcast <- envelope{room: room, payload: payload}
}

// Run processes hub events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-h.register:
			connectionsGauge.Inc()

		case c := <-h.unregister:
			h.removeClient(c)

		case s := <-h.subscribe:
			if s.join {
				h.joinRoom(s.client, s.room)
			} else {
				h.leaveRoom(s.client, s.room)
			}

		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

func (h *Hub) joinRoom(c *Client, room string) {
	// A subscribe can race a slow-client drop; a removed client must
	// never re-enter a room.
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveRoom(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// removeClient is idempotent: a slow client dropped by deliver is
// unregistered again when its read pump exits. Closing the connection
// here is what makes the pumps exit; the send channel stays open so a
// racing reply or deliver can never hit a closed channel.
func (h *Hub) removeClient(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	for room := range c.rooms {
		h.leaveRoom(c, room)
	}
	close(c.done)
	c.conn.Close()
	connectionsGauge.Dec()
}

// deliver sends to every member of the room. A client whose buffer is
// full is disconnected rather than allowed to stall the hub.
func (h *Hub) deliver(env envelope) {
	for c := range h.rooms[env.room] {
		select {
		case c.send <- env.payload:
			deliveredCounter.Inc()
		default:
			droppedCounter.Inc()
			h.log.Warn("dropping slow websocket client",
				zap.String("room", env.room),
				zap.Int64("user_id", c.userID))
			h.removeClient(c)
		}
	}
}
