package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// List holds cards in the order given by CardOrderIDs
type List struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Board        primitive.ObjectID   `bson:"board" json:"board"`
	Position     float64              `bson:"position" json:"position"`
	CardOrderIDs []primitive.ObjectID `bson:"cardOrderIds" json:"cardOrderIds"`
	Activities   []primitive.ObjectID `bson:"activities" json:"activities"`
	IsDeleted    bool                 `bson:"isDeleted" json:"isDeleted"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ListWithCards is a list with its live cards in display order
type ListWithCards struct {
	List
	Cards []Card `json:"cards"`
}

// ListCreate represents list creation data
type ListCreate struct {
	Title    string   `json:"title" validate:"required,max=255"`
	BoardID  string   `json:"boardId" validate:"required,objectid"`
	Position *float64 `json:"position,omitempty"`
}

// ListUpdate represents list update data
type ListUpdate struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Position *float64 `json:"position,omitempty"`
}

// OrderUpdate carries a complete replacement ordering
type OrderUpdate struct {
	Order []string `json:"order" validate:"required,dive,objectid"`
}

// ListRepository defines storage for lists
type ListRepository interface {
	Create(ctx context.Context, list *List) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*List, error)
	ListByBoard(ctx context.Context, boardID primitive.ObjectID) ([]List, error)
	Update(ctx context.Context, id primitive.ObjectID, update ListUpdate) error
	AppendCardOrder(ctx context.Context, id, cardID primitive.ObjectID) error
	InsertCardOrder(ctx context.Context, id, cardID primitive.ObjectID, index int) error
	SetCardOrder(ctx context.Context, id primitive.ObjectID, order []primitive.ObjectID) error
	PullCardOrder(ctx context.Context, id primitive.ObjectID, cardIDs ...primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SoftDeleteByBoard(ctx context.Context, boardID primitive.ObjectID) error
	PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error
}
