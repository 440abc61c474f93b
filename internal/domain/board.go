package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility controls who may discover a board
type Visibility string

const (
	VisibilityPrivate   Visibility = "private"
	VisibilityWorkspace Visibility = "workspace"
	VisibilityPublic    Visibility = "public"
)

// BoardMember is a membership entry. Inactive entries are past members kept for history.
type BoardMember struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	IsActive bool               `bson:"isActive" json:"isActive"`
	JoinedAt time.Time          `bson:"joinedAt" json:"joinedAt"`
}

// Board holds lists in the order given by ListOrderIDs
type Board struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Owner        primitive.ObjectID   `bson:"owner" json:"owner"`
	Workspace    primitive.ObjectID   `bson:"workspace" json:"workspace"`
	Members      []BoardMember        `bson:"members" json:"members"`
	InvitedUsers []primitive.ObjectID `bson:"invitedUsers" json:"invitedUsers"`
	ListOrderIDs []primitive.ObjectID `bson:"listOrderIds" json:"listOrderIds"`
	Visibility   Visibility           `bson:"visibility" json:"visibility"`
	Background   string               `bson:"background" json:"background"`
	Activities   []primitive.ObjectID `bson:"activities" json:"activities"`
	IsDeleted    bool                 `bson:"isDeleted" json:"isDeleted"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// OwnerID implements Owned
func (b *Board) OwnerID() primitive.ObjectID { return b.Owner }

// Member returns the membership entry for userID, active or not
func (b *Board) Member(userID primitive.ObjectID) (BoardMember, bool) {
	for _, m := range b.Members {
		if m.User == userID {
			return m, true
		}
	}
	return BoardMember{}, false
}

// ActiveMemberIDs returns the ids of all active members in membership order
func (b *Board) ActiveMemberIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(b.Members))
	for _, m := range b.Members {
		if m.IsActive {
			ids = append(ids, m.User)
		}
	}
	return ids
}

// BoardCreate represents board creation data
type BoardCreate struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	WorkspaceID string     `json:"workspaceId" validate:"required,objectid"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,oneof=private workspace public"`
	Background  string     `json:"background" validate:"max=255"`
}

// BoardUpdate represents board update data
type BoardUpdate struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Visibility  *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=private workspace public"`
	Background  *string     `json:"background,omitempty" validate:"omitempty,max=255"`
}

// MemberInvite identifies the user to invite by id or email
type MemberInvite struct {
	User string `json:"user" validate:"required,max=255"`
}

// BoardRepository defines storage for boards
type BoardRepository interface {
	Create(ctx context.Context, board *Board) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Board, error)
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]Board, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]Board, error)
	Update(ctx context.Context, id primitive.ObjectID, update BoardUpdate) error
	AddMember(ctx context.Context, id primitive.ObjectID, member BoardMember) error
	SetMemberActive(ctx context.Context, id, userID primitive.ObjectID, active bool) error
	AddInvited(ctx context.Context, id, userID primitive.ObjectID) error
	AppendListOrder(ctx context.Context, id, listID primitive.ObjectID) error
	SetListOrder(ctx context.Context, id primitive.ObjectID, order []primitive.ObjectID) error
	PullListOrder(ctx context.Context, id primitive.ObjectID, listIDs ...primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error
}
