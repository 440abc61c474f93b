package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

type listRepo struct{ s *Store }

func cloneList(l domain.List) domain.List {
	l.CardOrderIDs = cloneIDs(l.CardOrderIDs)
	l.Activities = cloneIDs(l.Activities)
	return l
}

func (r *listRepo) Create(_ context.Context, l *domain.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lists[l.ID] = cloneList(*l)
	return nil
}

func (r *listRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.List, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.lists[id]
	if !ok {
		return nil, domain.NotFound("list not found")
	}
	l = cloneList(l)
	return &l, nil
}

func (r *listRepo) ListByBoard(_ context.Context, boardID primitive.ObjectID) ([]domain.List, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.List{}
	for _, l := range r.s.lists {
		if !l.IsDeleted && l.Board == boardID {
			out = append(out, cloneList(l))
		}
	}
	sortByCreation(out, func(l domain.List) time.Time { return l.CreatedAt }, func(l domain.List) primitive.ObjectID { return l.ID })
	return out, nil
}

func (r *listRepo) mutate(id primitive.ObjectID, fn func(l *domain.List)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.lists[id]
	if !ok {
		return domain.NotFound("list not found")
	}
	l = cloneList(l)
	fn(&l)
	l.UpdatedAt = r.s.now()
	r.s.lists[id] = l
	return nil
}

func (r *listRepo) Update(_ context.Context, id primitive.ObjectID, u domain.ListUpdate) error {
	return r.mutate(id, func(l *domain.List) {
		if u.Title != nil {
			l.Title = *u.Title
		}
		if u.Position != nil {
			l.Position = *u.Position
		}
	})
}

func (r *listRepo) AppendCardOrder(_ context.Context, id, cardID primitive.ObjectID) error {
	return r.mutate(id, func(l *domain.List) {
		l.CardOrderIDs = append(l.CardOrderIDs, cardID)
	})
}

func (r *listRepo) InsertCardOrder(_ context.Context, id, cardID primitive.ObjectID, index int) error {
	return r.mutate(id, func(l *domain.List) {
		if index < 0 || index > len(l.CardOrderIDs) {
			index = len(l.CardOrderIDs)
		}
		order := make([]primitive.ObjectID, 0, len(l.CardOrderIDs)+1)
		order = append(order, l.CardOrderIDs[:index]...)
		order = append(order, cardID)
		order = append(order, l.CardOrderIDs[index:]...)
		l.CardOrderIDs = order
	})
}

func (r *listRepo) SetCardOrder(_ context.Context, id primitive.ObjectID, order []primitive.ObjectID) error {
	return r.mutate(id, func(l *domain.List) {
		l.CardOrderIDs = cloneIDs(order)
	})
}

func (r *listRepo) PullCardOrder(_ context.Context, id primitive.ObjectID, cardIDs ...primitive.ObjectID) error {
	return r.mutate(id, func(l *domain.List) {
		l.CardOrderIDs = pullAll(l.CardOrderIDs, cardIDs...)
	})
}

func (r *listRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(l *domain.List) {
		l.IsDeleted = true
		l.CardOrderIDs = []primitive.ObjectID{}
	})
}

func (r *listRepo) SoftDeleteByBoard(_ context.Context, boardID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, l := range r.s.lists {
		if l.Board == boardID && !l.IsDeleted {
			l = cloneList(l)
			l.IsDeleted = true
			l.CardOrderIDs = []primitive.ObjectID{}
			l.UpdatedAt = now
			r.s.lists[id] = l
		}
	}
	return nil
}

func (r *listRepo) PushActivity(_ context.Context, id, activityID primitive.ObjectID) error {
	return r.mutate(id, func(l *domain.List) {
		l.Activities = append(l.Activities, activityID)
	})
}
