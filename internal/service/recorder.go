package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

// Entry describes one accepted mutation to record
type Entry struct {
	Actor       domain.Actor
	Action      domain.Action
	Target      primitive.ObjectID
	TargetModel domain.TargetModel
	// Board scopes the activity to a board. The board's activity log also receives it.
	Board   *primitive.ObjectID
	Details string
	// Recipients are notified; the actor is always skipped.
	Recipients []primitive.ObjectID
}

type activityPusher func(ctx context.Context, id, activityID primitive.ObjectID) error

// Recorder turns accepted mutations into activity log entries and per-recipient notifications
type Recorder struct {
	activities    domain.ActivityRepository
	notifications domain.NotificationRepository
	boards        domain.BoardRepository
	targets       map[domain.TargetModel]activityPusher
	publisher     realtime.Publisher
	now           func() time.Time
}

// NewRecorder creates a recorder writing to store and publishing through publisher
func NewRecorder(store domain.Store, publisher realtime.Publisher) *Recorder {
	return &Recorder{
		activities:    store.Activities(),
		notifications: store.Notifications(),
		boards:        store.Boards(),
		targets: map[domain.TargetModel]activityPusher{
			domain.TargetWorkspace: store.Workspaces().PushActivity,
			domain.TargetBoard:     store.Boards().PushActivity,
			domain.TargetList:      store.Lists().PushActivity,
			domain.TargetCard:      store.Cards().PushActivity,
			domain.TargetUser:      func(context.Context, primitive.ObjectID, primitive.ObjectID) error { return nil },
		},
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record persists the activity, links it to its target and board, then creates
// and publishes one notification per recipient.
func (r *Recorder) Record(ctx context.Context, e Entry) (*domain.Activity, error) {
	push, ok := r.targets[e.TargetModel]
	if !ok {
		return nil, domain.Invalid("unknown target model %q", e.TargetModel)
	}

	now := r.now()
	activity := &domain.Activity{
		ID:          primitive.NewObjectID(),
		Actor:       e.Actor.ID,
		Action:      e.Action,
		Target:      e.Target,
		TargetModel: e.TargetModel,
		Board:       e.Board,
		Details:     e.Details,
		Timestamp:   now,
	}
	if err := r.activities.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	if err := push(ctx, e.Target, activity.ID); err != nil {
		return nil, fmt.Errorf("failed to link activity to %s: %w", e.TargetModel, err)
	}
	if e.Board != nil && !(e.TargetModel == domain.TargetBoard && e.Target == *e.Board) {
		if err := r.boards.PushActivity(ctx, *e.Board, activity.ID); err != nil {
			return nil, fmt.Errorf("failed to link activity to board: %w", err)
		}
	}

	seen := map[primitive.ObjectID]bool{e.Actor.ID: true}
	for _, recipient := range e.Recipients {
		if seen[recipient] {
			continue
		}
		seen[recipient] = true

		n := &domain.Notification{
			ID:          primitive.NewObjectID(),
			Recipient:   recipient,
			Actor:       e.Actor.ID,
			Message:     e.Details,
			Type:        e.Action,
			Target:      e.Target,
			TargetModel: e.TargetModel,
			Board:       e.Board,
			CreatedAt:   now,
		}
		if err := r.notifications.Create(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to create notification: %w", err)
		}

		ev := realtime.Event{
			Type:     realtime.EventNotificationCreated,
			EntityID: n.ID.Hex(),
			Data:     n,
			Message:  n.Message,
		}
		if e.Board != nil {
			ev.BoardID = e.Board.Hex()
		}
		r.Broadcast(ctx, realtime.UserTopic(recipient), ev)
	}

	return activity, nil
}

// Broadcast publishes event to topic. Delivery is best-effort, so failures are only logged.
func (r *Recorder) Broadcast(ctx context.Context, topic string, event realtime.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if err := r.publisher.Publish(ctx, topic, event); err != nil {
		log.Warn().
			Err(err).
			Str("topic", topic).
			Str("event_type", string(event.Type)).
			Msg("failed to publish event")
	}
}

// RevokeUser withdraws userID from the room on topic. Failures are only logged.
func (r *Recorder) RevokeUser(ctx context.Context, topic string, userID primitive.ObjectID) {
	if err := r.publisher.RevokeUser(ctx, topic, userID.Hex()); err != nil {
		log.Warn().
			Err(err).
			Str("topic", topic).
			Str("user_id", userID.Hex()).
			Msg("failed to revoke room subscription")
	}
}

// CloseRoom drops every subscriber of topic. Failures are only logged.
func (r *Recorder) CloseRoom(ctx context.Context, topic string) {
	if err := r.publisher.RevokeTopic(ctx, topic); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to close room")
	}
}

// activeRecipients keeps the ids that hold an active membership on board
func activeRecipients(board *domain.Board, ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if IsActiveMember(board, id) {
			out = append(out, id)
		}
	}
	return out
}

// boardEvent builds a board room event
func boardEvent(t realtime.EventType, entityID, boardID primitive.ObjectID, data any, message string) realtime.Event {
	return realtime.Event{
		Type:     t,
		EntityID: entityID.Hex(),
		BoardID:  boardID.Hex(),
		Data:     data,
		Message:  message,
	}
}

func ref(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}
