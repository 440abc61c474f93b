package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/taskboard/internal/realtime"
)

// Bus message kinds. Events carry no kind.
const (
	kindRevokeUser  = "revoke_user"
	kindRevokeTopic = "revoke_topic"
)

type envelope struct {
	Kind   string         `json:"kind,omitempty"`
	Topic  string         `json:"topic"`
	UserID string         `json:"userId,omitempty"`
	Event  realtime.Event `json:"event"`
}

// Sink applies bus messages to the local instance
type Sink interface {
	Deliver(topic string, event realtime.Event)
	UnsubscribeUser(userID, topic string) int
	CloseTopic(topic string) int
}

// EventBus fans realtime events out to every server instance through a Redis channel.
// Each instance runs a Listener that hands received events to its local hub.
type EventBus struct {
	client  *Client
	channel string
}

// NewEventBus creates an event bus on channel
func NewEventBus(client *Client, channel string) *EventBus {
	return &EventBus{client: client, channel: channel}
}

// Publish implements realtime.Publisher
func (b *EventBus) Publish(ctx context.Context, topic string, event realtime.Event) error {
	event.Topic = topic
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return b.send(ctx, envelope{Topic: topic, Event: event})
}

// RevokeUser implements realtime.Publisher. Every instance evicts the user's connections.
func (b *EventBus) RevokeUser(ctx context.Context, topic, userID string) error {
	return b.send(ctx, envelope{Kind: kindRevokeUser, Topic: topic, UserID: userID})
}

// RevokeTopic implements realtime.Publisher. Every instance closes the room.
func (b *EventBus) RevokeTopic(ctx context.Context, topic string) error {
	return b.send(ctx, envelope{Kind: kindRevokeTopic, Topic: topic})
}

func (b *EventBus) send(ctx context.Context, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}

	if err := b.client.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish bus message: %w", err)
	}
	return nil
}

// Listener is an established subscription to the bus channel
type Listener struct {
	sub *redis.PubSub
}

// Listen subscribes to the bus channel and waits for the subscription to be confirmed
func (b *EventBus) Listen(ctx context.Context) (*Listener, error) {
	sub := b.client.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	return &Listener{sub: sub}, nil
}

// Run applies every received message to sink until ctx is done or the listener is closed
func (l *Listener) Run(ctx context.Context, sink Sink) {
	ch := l.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Msg("discarding malformed bus message")
				continue
			}
			switch env.Kind {
			case "":
				sink.Deliver(env.Topic, env.Event)
			case kindRevokeUser:
				sink.UnsubscribeUser(env.UserID, env.Topic)
			case kindRevokeTopic:
				sink.CloseTopic(env.Topic)
			default:
				log.Warn().Str("kind", env.Kind).Msg("discarding unknown bus message")
			}
		}
	}
}

// Close ends the subscription
func (l *Listener) Close() error {
	return l.sub.Close()
}
