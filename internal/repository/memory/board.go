package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

type boardRepo struct{ s *Store }

func cloneBoard(b domain.Board) domain.Board {
	b.Members = append([]domain.BoardMember{}, b.Members...)
	b.InvitedUsers = cloneIDs(b.InvitedUsers)
	b.ListOrderIDs = cloneIDs(b.ListOrderIDs)
	b.Activities = cloneIDs(b.Activities)
	return b
}

func (r *boardRepo) Create(_ context.Context, b *domain.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.boards[b.ID] = cloneBoard(*b)
	return nil
}

func (r *boardRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Board, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.boards[id]
	if !ok {
		return nil, domain.NotFound("board not found")
	}
	b = cloneBoard(b)
	return &b, nil
}

func (r *boardRepo) list(keep func(b *domain.Board) bool) []domain.Board {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Board{}
	for _, b := range r.s.boards {
		if !b.IsDeleted && keep(&b) {
			out = append(out, cloneBoard(b))
		}
	}
	sortByCreation(out, func(b domain.Board) time.Time { return b.CreatedAt }, func(b domain.Board) primitive.ObjectID { return b.ID })
	return out
}

func (r *boardRepo) ListByMember(_ context.Context, userID primitive.ObjectID) ([]domain.Board, error) {
	return r.list(func(b *domain.Board) bool {
		m, ok := b.Member(userID)
		return ok && m.IsActive
	}), nil
}

func (r *boardRepo) ListByWorkspace(_ context.Context, workspaceID primitive.ObjectID) ([]domain.Board, error) {
	return r.list(func(b *domain.Board) bool { return b.Workspace == workspaceID }), nil
}

func (r *boardRepo) mutate(id primitive.ObjectID, fn func(b *domain.Board) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.boards[id]
	if !ok {
		return domain.NotFound("board not found")
	}
	b = cloneBoard(b)
	if err := fn(&b); err != nil {
		return err
	}
	b.UpdatedAt = r.s.now()
	r.s.boards[id] = b
	return nil
}

func (r *boardRepo) Update(_ context.Context, id primitive.ObjectID, u domain.BoardUpdate) error {
	return r.mutate(id, func(b *domain.Board) error {
		if u.Title != nil {
			b.Title = *u.Title
		}
		if u.Description != nil {
			b.Description = *u.Description
		}
		if u.Visibility != nil {
			b.Visibility = *u.Visibility
		}
		if u.Background != nil {
			b.Background = *u.Background
		}
		return nil
	})
}

func (r *boardRepo) AddMember(_ context.Context, id primitive.ObjectID, member domain.BoardMember) error {
	return r.mutate(id, func(b *domain.Board) error {
		if _, ok := b.Member(member.User); ok {
			return domain.Conflict("user is already a board member")
		}
		b.Members = append(b.Members, member)
		return nil
	})
}

func (r *boardRepo) SetMemberActive(_ context.Context, id, userID primitive.ObjectID, active bool) error {
	return r.mutate(id, func(b *domain.Board) error {
		for i := range b.Members {
			if b.Members[i].User == userID {
				b.Members[i].IsActive = active
				return nil
			}
		}
		return domain.NotFound("board member not found")
	})
}

func (r *boardRepo) AddInvited(_ context.Context, id, userID primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.InvitedUsers = addToSet(b.InvitedUsers, userID)
		return nil
	})
}

func (r *boardRepo) AppendListOrder(_ context.Context, id, listID primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.ListOrderIDs = append(b.ListOrderIDs, listID)
		return nil
	})
}

func (r *boardRepo) SetListOrder(_ context.Context, id primitive.ObjectID, order []primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.ListOrderIDs = cloneIDs(order)
		return nil
	})
}

func (r *boardRepo) PullListOrder(_ context.Context, id primitive.ObjectID, listIDs ...primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.ListOrderIDs = pullAll(b.ListOrderIDs, listIDs...)
		return nil
	})
}

func (r *boardRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.IsDeleted = true
		b.ListOrderIDs = []primitive.ObjectID{}
		return nil
	})
}

func (r *boardRepo) PushActivity(_ context.Context, id, activityID primitive.ObjectID) error {
	return r.mutate(id, func(b *domain.Board) error {
		b.Activities = append(b.Activities, activityID)
		return nil
	})
}
