package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errHubClosed = errors.New("realtime hub is shut down")

// Client is a connected subscriber
type Client struct {
	ID          string
	UserID      string
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}

	topics map[string]struct{}
}

// Hub keeps the topic subscriptions of connected clients and delivers events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	topics  map[string]map[string]*Client
	buffer  int
	closed  bool
}

// NewHub creates a hub whose clients buffer up to bufferSize undelivered events
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		clients: make(map[string]*Client),
		topics:  make(map[string]map[string]*Client),
		buffer:  bufferSize,
	}
}

// Publish implements Publisher by delivering to local subscribers
func (h *Hub) Publish(_ context.Context, topic string, event Event) error {
	h.Deliver(topic, event)
	return nil
}

// Deliver sends event to every client subscribed to topic.
// Slow clients whose buffer is full miss the event.
func (h *Hub) Deliver(topic string, event Event) {
	event.Topic = topic
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var delivered, dropped int
	for _, c := range h.topics[topic] {
		select {
		case c.Events <- event:
			delivered++
		default:
			dropped++
			log.Warn().
				Str("client_id", c.ID).
				Str("event_type", string(event.Type)).
				Msg("dropped event for slow client")
		}
	}

	log.Debug().
		Str("topic", topic).
		Str("event_type", string(event.Type)).
		Int("delivered", delivered).
		Int("dropped", dropped).
		Msg("event delivered")
}

// Connect registers a client for userID
func (h *Hub) Connect(userID string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errHubClosed
	}

	c := &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		Events:      make(chan Event, h.buffer),
		Done:        make(chan struct{}),
		topics:      make(map[string]struct{}),
	}
	h.clients[c.ID] = c

	log.Info().
		Str("client_id", c.ID).
		Str("user_id", userID).
		Int("total_clients", len(h.clients)).
		Msg("realtime client connected")
	return c, nil
}

// Disconnect unsubscribes the client from all topics and closes it
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	for topic := range c.topics {
		h.removeLocked(topic, clientID)
	}
	delete(h.clients, clientID)
	close(c.Done)

	log.Info().
		Str("client_id", clientID).
		Int("total_clients", len(h.clients)).
		Msg("realtime client disconnected")
}

// Subscribe adds the client to topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(clientID, topic string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Client)
		h.topics[topic] = subs
	}
	subs[clientID] = c
	c.topics[topic] = struct{}{}
	return true
}

// Unsubscribe removes the client from topic
func (h *Hub) Unsubscribe(clientID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		delete(c.topics, topic)
	}
	h.removeLocked(topic, clientID)
}

// RevokeUser implements Publisher by evicting the user's local connections
func (h *Hub) RevokeUser(_ context.Context, topic, userID string) error {
	h.UnsubscribeUser(userID, topic)
	return nil
}

// RevokeTopic implements Publisher by closing the local room
func (h *Hub) RevokeTopic(_ context.Context, topic string) error {
	h.CloseTopic(topic)
	return nil
}

// UnsubscribeUser removes every client of userID from topic and tells each
// of them the room was left. It returns the number of clients removed.
func (h *Hub) UnsubscribeUser(userID, topic string) int {
	return h.evict(topic, func(c *Client) bool { return c.UserID == userID })
}

// CloseTopic removes every subscriber of topic
func (h *Hub) CloseTopic(topic string) int {
	return h.evict(topic, func(*Client) bool { return true })
}

func (h *Hub) evict(topic string, match func(c *Client) bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	notice := Event{Type: EventRoomLeft, Topic: topic, Message: "access revoked", Timestamp: time.Now().UTC()}
	var removed int
	for id, c := range h.topics[topic] {
		if !match(c) {
			continue
		}
		delete(c.topics, topic)
		h.removeLocked(topic, id)
		removed++
		select {
		case c.Events <- notice:
		default:
		}
	}

	if removed > 0 {
		log.Info().
			Str("topic", topic).
			Int("removed", removed).
			Msg("room subscriptions revoked")
	}
	return removed
}

func (h *Hub) removeLocked(topic, clientID string) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, clientID)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Subscribers returns the number of clients subscribed to topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Shutdown disconnects every client and rejects new connections
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Disconnect(id)
	}
	log.Info().Int("clients", len(ids)).Msg("realtime hub shut down")
}
