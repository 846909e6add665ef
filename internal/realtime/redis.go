package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mmynk/cobill/internal/metrics"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances.
const DefaultChannel = "cobill:events"

const publishTimeout = 2 * time.Second

// envelope is the message carried over Redis.
type envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

var _ Broadcaster = (*RedisBroadcaster)(nil)

// RedisBroadcaster publishes events to a Redis channel instead of local
// sockets. Every instance runs a Relay that delivers them to its own Hub.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

// NewRedisBroadcaster publishes to channel, or DefaultChannel when empty.
func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroadcaster{client: client, channel: channel}
}

// Publish sends the event to Redis. Failures are logged and counted.
func (b *RedisBroadcaster) Publish(ctx context.Context, room, event string, payload any) {
	data, err := json.Marshal(envelope{Room: room, Event: event, Payload: mustJSON(payload)})
	if err != nil {
		slog.Error("failed to encode relay envelope", "event", event, "error", err)
		return
	}

	// The request may finish before Redis answers; the publish should not be
	// cancelled with it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		metrics.RelayErrors.Inc()
		slog.Error("failed to publish realtime event to redis", "room", room, "event", event, "error", err)
	}
}

// Relay subscribes to the Redis channel and re-publishes each event locally.
type Relay struct {
	client  *redis.Client
	channel string
	local   Broadcaster
}

// NewRelay delivers events from channel (DefaultChannel when empty) to local.
func NewRelay(client *redis.Client, channel string, local Broadcaster) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{client: client, channel: channel, local: local}
}

// Run consumes the channel until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	slog.Info("realtime relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *Relay) deliver(ctx context.Context, data string) {
	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil || env.Room == "" || env.Event == "" {
		metrics.RelayErrors.Inc()
		slog.Warn("discarding malformed relay message", "error", err)
		return
	}
	r.local.Publish(ctx, env.Room, env.Event, env.Payload)
}
