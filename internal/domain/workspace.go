package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace groups boards under a single owner
type Workspace struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	IsPublic    bool                 `bson:"isPublic" json:"isPublic"`
	Activities  []primitive.ObjectID `bson:"activities" json:"activities"`
	IsDeleted   bool                 `bson:"isDeleted" json:"isDeleted"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// OwnerID implements Owned
func (w *Workspace) OwnerID() primitive.ObjectID { return w.Owner }

// HasMember reports whether userID belongs to the workspace. The owner always does.
func (w *Workspace) HasMember(userID primitive.ObjectID) bool {
	if w.Owner == userID {
		return true
	}
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// WorkspaceCreate represents workspace creation data
type WorkspaceCreate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	IsPublic    bool   `json:"isPublic"`
}

// WorkspaceUpdate represents workspace update data
type WorkspaceUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// WorkspaceRepository defines storage for workspaces
type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *Workspace) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Workspace, error)
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]Workspace, error)
	Update(ctx context.Context, id primitive.ObjectID, update WorkspaceUpdate) error
	AddMember(ctx context.Context, id, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error
}
