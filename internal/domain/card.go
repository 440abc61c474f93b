package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Card is a task inside a list. Version increments on every checklist item mutation.
type Card struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	List        primitive.ObjectID   `bson:"list" json:"list"`
	Board       primitive.ObjectID   `bson:"board" json:"board"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Position    float64              `bson:"position" json:"position"`
	Completed   bool                 `bson:"completed" json:"completed"`
	DueDate     *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Checklists  []Checklist          `bson:"checklists" json:"checklists"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	Notes       []Note               `bson:"notes" json:"notes"`
	Activities  []primitive.ObjectID `bson:"activities" json:"activities"`
	Version     int64                `bson:"version" json:"version"`
	IsDeleted   bool                 `bson:"isDeleted" json:"isDeleted"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasMember reports whether userID is assigned to the card
func (c *Card) HasMember(userID primitive.ObjectID) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Checklist returns the embedded checklist with the given id
func (c *Card) Checklist(id primitive.ObjectID) (*Checklist, bool) {
	for i := range c.Checklists {
		if c.Checklists[i].ID == id {
			return &c.Checklists[i], true
		}
	}
	return nil, false
}

// Comment returns the embedded comment with the given id
func (c *Card) Comment(id primitive.ObjectID) (*Comment, bool) {
	for i := range c.Comments {
		if c.Comments[i].ID == id {
			return &c.Comments[i], true
		}
	}
	return nil, false
}

// Note returns the embedded note with the given id
func (c *Card) Note(id primitive.ObjectID) (*Note, bool) {
	for i := range c.Notes {
		if c.Notes[i].ID == id {
			return &c.Notes[i], true
		}
	}
	return nil, false
}

// Checklist is embedded in a card
type Checklist struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Items     []ChecklistItem    `bson:"items" json:"items"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}

// Item returns the checklist item with the given id
func (c *Checklist) Item(id primitive.ObjectID) (*ChecklistItem, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// ChecklistItem is embedded in a checklist
type ChecklistItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Text      string             `bson:"text" json:"text"`
	Completed bool               `bson:"completed" json:"completed"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}

// ChecklistItemPatch lists the item fields to overwrite. Nil fields are left alone.
type ChecklistItemPatch struct {
	Text      *string
	Completed *bool
	IsDeleted *bool
}

// Comment is embedded in a card
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}

// Note is embedded in a card
type Note struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}

// CardCreate represents card creation data
type CardCreate struct {
	Title       string     `json:"title" validate:"required,max=512"`
	Description string     `json:"description" validate:"max=10000"`
	ListID      string     `json:"listId" validate:"required,objectid"`
	Position    *float64   `json:"position,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// CardUpdate represents card update data
type CardUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=512"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Position    *float64   `json:"position,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// CardMove represents a move to another list, possibly on another board
type CardMove struct {
	ListID  string `json:"listId" validate:"required,objectid"`
	BoardID string `json:"boardId" validate:"required,objectid"`
	Index   *int   `json:"index,omitempty" validate:"omitempty,min=0"`
}

// CardMemberAdd identifies a board member to assign to a card
type CardMemberAdd struct {
	UserID string `json:"userId" validate:"required,objectid"`
}

// CommentCreate represents comment creation data
type CommentCreate struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// NoteCreate represents note creation data
type NoteCreate struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// ChecklistCreate represents checklist creation data
type ChecklistCreate struct {
	Title string `json:"title" validate:"required,max=255"`
}

// ChecklistItemCreate represents a new checklist item guarded by the card version
type ChecklistItemCreate struct {
	Text    string `json:"text" validate:"required,max=1000"`
	Version *int64 `json:"version,omitempty" validate:"omitempty,min=0"`
}

// ChecklistItemUpdate represents an item text edit guarded by the card version
type ChecklistItemUpdate struct {
	Text    string `json:"text" validate:"required,max=1000"`
	Version *int64 `json:"version,omitempty" validate:"omitempty,min=0"`
}

// VersionGuard carries the optional expected card version of an item mutation
type VersionGuard struct {
	Version *int64 `json:"version,omitempty" validate:"omitempty,min=0"`
}

// ChecklistItemResult is returned from versioned item mutations
type ChecklistItemResult struct {
	Item    ChecklistItem `json:"item"`
	Version int64         `json:"version"`
}

// CardRepository defines storage for cards and their embedded content.
// Each method is a single atomic document update.
type CardRepository interface {
	Create(ctx context.Context, card *Card) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Card, error)
	ListByList(ctx context.Context, listID primitive.ObjectID) ([]Card, error)
	Update(ctx context.Context, id primitive.ObjectID, update CardUpdate) error
	Relocate(ctx context.Context, id, listID, boardID primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SoftDeleteByList(ctx context.Context, listID primitive.ObjectID) error
	SoftDeleteByBoard(ctx context.Context, boardID primitive.ObjectID) error
	AddMember(ctx context.Context, id, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error
	// PullMemberByBoard unassigns userID from every card of the board
	PullMemberByBoard(ctx context.Context, boardID, userID primitive.ObjectID) error
	PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error

	AppendComment(ctx context.Context, id primitive.ObjectID, comment Comment) error
	HideComment(ctx context.Context, id, commentID primitive.ObjectID) error
	AppendNote(ctx context.Context, id primitive.ObjectID, note Note) error
	HideNote(ctx context.Context, id, noteID primitive.ObjectID) error

	AppendChecklist(ctx context.Context, id primitive.ObjectID, checklist Checklist) error
	RenameChecklist(ctx context.Context, id, checklistID primitive.ObjectID, title string) error
	DeleteChecklist(ctx context.Context, id, checklistID primitive.ObjectID) error

	// PushChecklistItem and PatchChecklistItem apply only when the stored
	// version equals expectedVersion and return the incremented version.
	// A version mismatch yields ErrConflict.
	PushChecklistItem(ctx context.Context, id, checklistID primitive.ObjectID, expectedVersion int64, item ChecklistItem) (int64, error)
	PatchChecklistItem(ctx context.Context, id, checklistID, itemID primitive.ObjectID, expectedVersion int64, patch ChecklistItemPatch) (int64, error)
}
