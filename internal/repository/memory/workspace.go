package memory

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.Conflict("email already registered")
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

type workspaceRepo struct{ s *Store }

func cloneWorkspace(w domain.Workspace) domain.Workspace {
	w.Members = cloneIDs(w.Members)
	w.Activities = cloneIDs(w.Activities)
	return w
}

func (r *workspaceRepo) Create(_ context.Context, w *domain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.workspaces[w.ID] = cloneWorkspace(*w)
	return nil
}

func (r *workspaceRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.workspaces[id]
	if !ok {
		return nil, domain.NotFound("workspace not found")
	}
	w = cloneWorkspace(w)
	return &w, nil
}

func (r *workspaceRepo) ListByMember(_ context.Context, userID primitive.ObjectID) ([]domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Workspace{}
	for _, w := range r.s.workspaces {
		if !w.IsDeleted && w.HasMember(userID) {
			out = append(out, cloneWorkspace(w))
		}
	}
	sortByCreation(out, func(w domain.Workspace) time.Time { return w.CreatedAt }, func(w domain.Workspace) primitive.ObjectID { return w.ID })
	return out, nil
}

// mutate applies fn to a stored workspace under the write lock
func (r *workspaceRepo) mutate(id primitive.ObjectID, fn func(w *domain.Workspace)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workspaces[id]
	if !ok {
		return domain.NotFound("workspace not found")
	}
	fn(&w)
	w.UpdatedAt = r.s.now()
	r.s.workspaces[id] = w
	return nil
}

func (r *workspaceRepo) Update(_ context.Context, id primitive.ObjectID, u domain.WorkspaceUpdate) error {
	return r.mutate(id, func(w *domain.Workspace) {
		if u.Name != nil {
			w.Name = *u.Name
		}
		if u.Description != nil {
			w.Description = *u.Description
		}
		if u.IsPublic != nil {
			w.IsPublic = *u.IsPublic
		}
	})
}

func (r *workspaceRepo) AddMember(_ context.Context, id, userID primitive.ObjectID) error {
	return r.mutate(id, func(w *domain.Workspace) {
		w.Members = addToSet(cloneIDs(w.Members), userID)
	})
}

func (r *workspaceRepo) RemoveMember(_ context.Context, id, userID primitive.ObjectID) error {
	return r.mutate(id, func(w *domain.Workspace) {
		w.Members = pullAll(w.Members, userID)
	})
}

func (r *workspaceRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(w *domain.Workspace) {
		w.IsDeleted = true
	})
}

func (r *workspaceRepo) PushActivity(_ context.Context, id, activityID primitive.ObjectID) error {
	return r.mutate(id, func(w *domain.Workspace) {
		w.Activities = append(cloneIDs(w.Activities), activityID)
	})
}
