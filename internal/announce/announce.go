// Package announce publishes entity change events to the Redis channel
// the sockets server listens on. Every create/update/delete of an
// announced entity emits a message to the account's room so connected
// clients see changes live.
package announce

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Methods describing what happened to the announced entity.
const (
	MethodCreate = "create"
	MethodUpdate = "update"
	MethodDelete = "delete"
)

// Message is the wire envelope published to the sockets channel.
type Message struct {
	Event string  `json:"event"`
	Room  string  `json:"room"`
	Data  Payload `json:"data"`
}

// Payload carries the changed entity.
type Payload struct {
	DataType string      `json:"data_type"`
	Method   string      `json:"method"`
	Data     interface{} `json:"data"`
}

// Announcer publishes entity changes to a room. Implementations must
// never fail the caller's request: publish errors are logged and dropped.
type Announcer interface {
	Announce(ctx context.Context, room, dataType, method string, data interface{})
}

var published = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "boards_announce_published_total",
		Help: "Total number of announce events published",
	},
	[]string{"data_type", "method"},
)

// RedisAnnouncer publishes messages to a Redis pub/sub channel.
type RedisAnnouncer struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedisAnnouncer creates an announcer publishing to the given channel.
func NewRedisAnnouncer(client *redis.Client, channel string, log *zap.Logger) *RedisAnnouncer {
	return &RedisAnnouncer{client: client, channel: channel, log: log}
}

// Announce publishes a message. Failures are logged, never returned:
// a dead sockets pipeline must not fail API requests.
func (a *RedisAnnouncer) Announce(ctx context.Context, room, dataType, method string, data interface{}) {
	msg := Message{
		Event: "message",
		Room:  room,
		Data: Payload{
			DataType: dataType,
			Method:   method,
			Data:     data,
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		a.log.Error("failed to marshal announce message",
			zap.String("room", room),
			zap.String("data_type", dataType),
			zap.Error(err))
		return
	}

	if err := a.client.Publish(ctx, a.channel, body).Err(); err != nil {
		a.log.Error("failed to publish announce message",
			zap.String("room", room),
			zap.String("data_type", dataType),
			zap.String("method", method),
			zap.Error(err))
		return
	}

	published.WithLabelValues(dataType, method).Inc()

	a.log.Debug("announced",
		zap.String("room", room),
		zap.String("data_type", dataType),
		zap.String("method", method))
}

// MemoryAnnouncer records messages in memory. Used in tests and when
// ANNOUNCE_TEST_MODE is on.
type MemoryAnnouncer struct {
	mu       sync.Mutex
	messages []Message
}

// NewMemoryAnnouncer creates an in-memory announcer.
func NewMemoryAnnouncer() *MemoryAnnouncer {
	return &MemoryAnnouncer{}
}

// Announce records the message.
func (a *MemoryAnnouncer) Announce(_ context.Context, room, dataType, method string, data interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, Message{
		Event: "message",
		Room:  room,
		Data: Payload{
			DataType: dataType,
			Method:   method,
			Data:     data,
		},
	})
}

// Messages returns a copy of all recorded messages.
func (a *MemoryAnnouncer) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Reset clears recorded messages.
func (a *MemoryAnnouncer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = nil
}
