package sockets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// clientMessage is what browsers send: room management actions.
type clientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// serverMessage acknowledges an action or reports a refusal.
type serverMessage struct {
	Event string `json:"event"`
	Room  string `json:"room"`
}

// Client is one websocket connection. The hub owns rooms and closed,
// and closes done when it removes the client; the read and write pumps
// own the connection. send is never closed, so queueing a message can
// race removal safely.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	auth   *RoomAuthorizer
	send   chan []byte
	done   chan struct{}
	userID int64
	rooms  map[string]struct{}
	closed bool
	log    *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, auth *RoomAuthorizer, userID int64, log *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		auth:   auth,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		userID: userID,
		rooms:  make(map[string]struct{}),
		log:    log,
	}
}

// readPump reads subscribe and unsubscribe actions until the
// connection drops, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Room == "" {
			c.reply("invalid", msg.Room)
			continue
		}

		switch msg.Action {
		case "subscribe":
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			allowed := c.auth.CanJoin(ctx, c.userID, msg.Room)
			cancel()
			if !allowed {
				c.reply("denied", msg.Room)
				continue
			}
			c.hub.subscribe <- subscription{client: c, room: msg.Room, join: true}
			c.reply("subscribed", msg.Room)
		case "unsubscribe":
			c.hub.subscribe <- subscription{client: c, room: msg.Room, join: false}
			c.reply("unsubscribed", msg.Room)
		default:
			c.reply("invalid", msg.Room)
		}
	}
}

// reply queues a control acknowledgement without blocking the pump.
func (c *Client) reply(event, room string) {
	body, err := json.Marshal(serverMessage{Event: event, Room: room})
	if err != nil {
		return
	}
	select {
	case c.send <- body:
	default:
	}
}

// writePump drains the send channel and keeps the connection alive
// with pings. It exits when the hub signals done.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
