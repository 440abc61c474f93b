package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(_ context.Context, a *domain.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activities[a.ID] = *a
	return nil
}

func (r *activityRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.activities[id]
	if !ok {
		return nil, domain.NotFound("activity not found")
	}
	return &a, nil
}

// newest returns matching activities, most recent first, capped at limit when positive
func (r *activityRepo) newest(match func(a *domain.Activity) bool, limit int) []domain.Activity {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Activity{}
	for _, a := range r.s.activities {
		if match(&a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *activityRepo) ListByBoard(_ context.Context, boardID primitive.ObjectID, linked []primitive.ObjectID, limit int) ([]domain.Activity, error) {
	return r.newest(func(a *domain.Activity) bool {
		return (a.Board != nil && *a.Board == boardID) || a.Target == boardID || domain.ContainsID(linked, a.ID)
	}, limit), nil
}

func (r *activityRepo) ListByTarget(_ context.Context, target primitive.ObjectID, limit int) ([]domain.Activity, error) {
	return r.newest(func(a *domain.Activity) bool { return a.Target == target }, limit), nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, domain.NotFound("notification not found")
	}
	return &n, nil
}

func (r *notificationRepo) ListByRecipient(_ context.Context, recipient primitive.ObjectID, includeHidden bool, limit int) ([]domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Notification{}
	for _, n := range r.s.notifications {
		if n.Recipient == recipient && (includeHidden || !n.IsHidden) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) mutate(id primitive.ObjectID, fn func(n *domain.Notification)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return domain.NotFound("notification not found")
	}
	fn(&n)
	r.s.notifications[id] = n
	return nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(n *domain.Notification) { n.IsRead = true })
}

func (r *notificationRepo) Hide(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(n *domain.Notification) { n.IsHidden = true })
}

func (r *notificationRepo) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var modified int64
	for id, n := range r.s.notifications {
		if n.Recipient == recipient && !n.IsRead {
			n.IsRead = true
			r.s.notifications[id] = n
			modified++
		}
	}
	return modified, nil
}
