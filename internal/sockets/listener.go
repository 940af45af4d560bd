package sockets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"boards-backend/internal/announce"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Listener consumes announce messages from Redis pub/sub and feeds
// them to the hub.
type Listener struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

// NewListener creates a listener for the announce channel.
func NewListener(client *redis.Client, channel string, hub *Hub, log *zap.Logger) *Listener {
	return &Listener{client: client, channel: channel, hub: hub, log: log}
}

// Run consumes until the context is cancelled, reconnecting with
// exponential backoff when the subscription drops.
func (l *Listener) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		err := l.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("announce subscription lost, reconnecting",
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (l *Listener) consume(ctx context.Context) error {
	sub := l.client.Subscribe(ctx, l.channel)
	defer sub.Close()

	// confirm the subscription before draining the channel
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	l.log.Info("listening for announce messages", zap.String("channel", l.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			l.dispatch([]byte(m.Payload))
		}
	}
}

// dispatch routes one announce payload to its room. The full envelope
// is forwarded so clients see event, room, and data.
func (l *Listener) dispatch(payload []byte) {
	var msg announce.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.log.Warn("discarding malformed announce payload", zap.Error(err))
		return
	}
	if msg.Room == "" {
		l.log.Warn("discarding announce payload without room")
		return
	}
	l.hub.Broadcast(msg.Room, payload)
}
