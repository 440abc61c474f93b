package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

const defaultNotificationLimit = 50

// NotificationService handles the actor's own notifications
type NotificationService struct {
	notifications domain.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(store domain.Store) *NotificationService {
	return &NotificationService{notifications: store.Notifications()}
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor domain.Actor, includeHidden bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	notifications, err := s.notifications.ListByRecipient(ctx, actor.ID, includeHidden, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) owned(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n.Recipient != actor.ID {
		return nil, domain.Forbidden("notification belongs to another user")
	}
	return n, nil
}

// MarkRead marks one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n.IsRead = true
	return n, nil
}

// Hide hides one of the actor's notifications from the default listing
func (s *NotificationService) Hide(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.notifications.Hide(ctx, id); err != nil {
		return fmt.Errorf("failed to hide notification: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the actor as read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}
