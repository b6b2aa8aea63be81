package ws

import (
	"context"
	"encoding/json"

	"taskora/internal/domain"
	"taskora/internal/logger"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const DefaultRelayChannel = "taskora:task-events"

// relayEnvelope tags an event with the instance that produced it.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

// RedisRelay delivers task events to this instance's hub directly and shares
// them with other API instances over a Redis channel. Local subscribers keep
// receiving events when Redis or the subscription is down.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{client: client, channel: channel, origin: uuid.NewString(), hub: hub}
}

func (r *RedisRelay) Publish(ctx context.Context, ev domain.TaskEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.WithContext(ctx).Error("encode task event", "error", err)
		return
	}
	r.hub.Broadcast(msg)

	env, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: msg})
	if err != nil {
		logger.WithContext(ctx).Error("encode relay envelope", "error", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, env).Err(); err != nil {
		logger.WithContext(ctx).Warn("redis publish failed, other instances miss this event", "error", err)
	}
}

// Run forwards events published by other instances to the hub until ctx is
// done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.forward([]byte(msg.Payload))
		}
	}
}

// forward broadcasts a channel payload unless this instance produced it.
func (r *RedisRelay) forward(payload []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Event) == 0 {
		logger.Warn("dropping malformed relay message", "channel", r.channel)
		return
	}
	if env.Origin == r.origin {
		return
	}
	r.hub.Broadcast(env.Event)
}
