package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Control events exchanged on the socket itself
const (
	EventConnected  EventType = "connected"
	EventRoomJoined EventType = "room.joined"
	EventRoomLeft   EventType = "room.left"
	EventRoomError  EventType = "room.error"
)

// Room kinds a client may join
const (
	RoomBoard     = "board"
	RoomWorkspace = "workspace"
)

// Room identifies a board or workspace room
type Room struct {
	Kind string
	ID   string
}

// Topic returns the hub topic of the room
func (r Room) Topic() string {
	if r.Kind == RoomWorkspace {
		return workspaceTopicPrefix + r.ID
	}
	return boardTopicPrefix + r.ID
}

// Authenticator resolves the user id of an upgrade request
type Authenticator func(r *http.Request) (string, error)

// RoomAuthorizer decides whether userID may join room
type RoomAuthorizer func(ctx context.Context, userID string, room Room) error

type clientMessage struct {
	Action    string `json:"action"`
	Board     string `json:"board,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

func (m clientMessage) room() (Room, bool) {
	switch {
	case m.Board != "":
		return Room{Kind: RoomBoard, ID: m.Board}, true
	case m.Workspace != "":
		return Room{Kind: RoomWorkspace, ID: m.Workspace}, true
	default:
		return Room{}, false
	}
}

// Handler upgrades requests to websocket connections attached to the hub.
// Every client is subscribed to its own user topic and may join board and
// workspace rooms it is authorized for.
type Handler struct {
	hub          *Hub
	authenticate Authenticator
	authorize    RoomAuthorizer
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

// NewHandler creates a websocket handler
func NewHandler(hub *Hub, authenticate Authenticator, authorize RoomAuthorizer, allowedOrigins []string, pingInterval time.Duration) *Handler {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Handler{
		hub:          hub,
		authenticate: authenticate,
		authorize:    authorize,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client, err := h.hub.Connect(userID)
	if err != nil {
		conn.Close()
		return
	}
	defer h.hub.Disconnect(client.ID)

	h.hub.Subscribe(client.ID, userTopicPrefix+userID)
	h.reply(client, Event{Type: EventConnected, Topic: userTopicPrefix + userID, Message: "connected"})

	go h.writePump(conn, client)
	h.readPump(r.Context(), conn, client)
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, client *Client) {
	pongWait := 2 * h.pingInterval

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", client.ID).Msg("websocket read failed")
			}
			return
		}
		h.handleMessage(ctx, client, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, client *Client, msg clientMessage) {
	room, ok := msg.room()
	if !ok {
		h.reply(client, Event{Type: EventRoomError, Message: "room is required"})
		return
	}

	switch msg.Action {
	case "join":
		if err := h.authorize(ctx, client.UserID, room); err != nil {
			h.reply(client, Event{Type: EventRoomError, Topic: room.Topic(), EntityID: room.ID, Message: err.Error()})
			return
		}
		h.hub.Subscribe(client.ID, room.Topic())
		h.reply(client, Event{Type: EventRoomJoined, Topic: room.Topic(), EntityID: room.ID})
	case "leave":
		h.hub.Unsubscribe(client.ID, room.Topic())
		h.reply(client, Event{Type: EventRoomLeft, Topic: room.Topic(), EntityID: room.ID})
	default:
		h.reply(client, Event{Type: EventRoomError, Message: "unknown action " + msg.Action})
	}
}

// reply queues a control event for the client without blocking the read loop
func (h *Handler) reply(client *Client, event Event) {
	event.Timestamp = time.Now().UTC()
	select {
	case client.Events <- event:
	default:
	}
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event := <-client.Events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.Done:
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}
