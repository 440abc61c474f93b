// Package realtime delivers board, workspace and user events to connected clients.
//
// Delivery is at-most-once and best-effort: there is no persistence or replay,
// and clients that miss an event resynchronise through the REST endpoints.
package realtime

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType names a realtime event
type EventType string

const (
	EventWorkspaceCreated EventType = "workspace.created"
	EventWorkspaceUpdated EventType = "workspace.updated"
	EventWorkspaceDeleted EventType = "workspace.deleted"

	EventBoardCreated       EventType = "board.created"
	EventBoardUpdated       EventType = "board.updated"
	EventBoardDeleted       EventType = "board.deleted"
	EventBoardMemberAdded   EventType = "board.member_added"
	EventBoardMemberRemoved EventType = "board.member_removed"

	EventListCreated   EventType = "list.created"
	EventListUpdated   EventType = "list.updated"
	EventListDeleted   EventType = "list.deleted"
	EventListReordered EventType = "list.reordered"

	EventCardCreated       EventType = "card.created"
	EventCardUpdated       EventType = "card.updated"
	EventCardDeleted       EventType = "card.deleted"
	EventCardMoved         EventType = "card.moved"
	EventCardReordered     EventType = "card.reordered"
	EventCardMemberAdded   EventType = "card.member_added"
	EventCardMemberRemoved EventType = "card.member_removed"

	EventCommentAdded  EventType = "comment.added"
	EventCommentHidden EventType = "comment.hidden"
	EventNoteAdded     EventType = "note.added"
	EventNoteHidden    EventType = "note.hidden"

	EventChecklistAdded       EventType = "checklist.added"
	EventChecklistUpdated     EventType = "checklist.updated"
	EventChecklistDeleted     EventType = "checklist.deleted"
	EventChecklistItemAdded   EventType = "checklist.item_added"
	EventChecklistItemUpdated EventType = "checklist.item_updated"
	EventChecklistItemToggled EventType = "checklist.item_toggled"
	EventChecklistItemDeleted EventType = "checklist.item_deleted"

	EventNotificationCreated EventType = "notification.created"
)

// Event is the payload published to a topic
type Event struct {
	Type      EventType `json:"type"`
	Topic     string    `json:"topic"`
	EntityID  string    `json:"entityId"`
	BoardID   string    `json:"boardId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes an event to every current subscriber of a topic and
// withdraws subscriptions once access to a room is lost.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	// RevokeUser drops every connection of userID from topic
	RevokeUser(ctx context.Context, topic, userID string) error
	// RevokeTopic drops every subscriber of topic
	RevokeTopic(ctx context.Context, topic string) error
}

const (
	userTopicPrefix      = "user:"
	boardTopicPrefix     = "board:"
	workspaceTopicPrefix = "workspace:"
)

// UserTopic is the personal topic of a user
func UserTopic(id primitive.ObjectID) string { return userTopicPrefix + id.Hex() }

// BoardTopic is the room of a board
func BoardTopic(id primitive.ObjectID) string { return boardTopicPrefix + id.Hex() }

// WorkspaceTopic is the room of a workspace
func WorkspaceTopic(id primitive.ObjectID) string { return workspaceTopicPrefix + id.Hex() }
