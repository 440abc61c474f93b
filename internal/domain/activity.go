package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TargetModel tags the kind of entity an activity or notification refers to
type TargetModel string

const (
	TargetWorkspace TargetModel = "Workspace"
	TargetBoard     TargetModel = "Board"
	TargetList      TargetModel = "List"
	TargetCard      TargetModel = "Card"
	TargetUser      TargetModel = "User"
)

// TargetModels enumerates every legal target kind
var TargetModels = []TargetModel{TargetWorkspace, TargetBoard, TargetList, TargetCard, TargetUser}

// Valid reports whether m is one of the legal target kinds
func (m TargetModel) Valid() bool {
	for _, t := range TargetModels {
		if t == m {
			return true
		}
	}
	return false
}

// Action tags what an activity records
type Action string

const (
	ActionWorkspaceCreated Action = "workspace_created"
	ActionWorkspaceUpdated Action = "workspace_updated"
	ActionWorkspaceDeleted Action = "workspace_deleted"

	ActionBoardCreated  Action = "board_created"
	ActionBoardUpdated  Action = "board_updated"
	ActionBoardDeleted  Action = "board_deleted"
	ActionMemberInvited Action = "member_invited"
	ActionMemberRemoved Action = "member_removed"

	ActionListCreated    Action = "list_created"
	ActionListUpdated    Action = "list_updated"
	ActionListDeleted    Action = "list_deleted"
	ActionListsReordered Action = "lists_reordered"

	ActionCardCreated       Action = "card_created"
	ActionCardUpdated       Action = "card_updated"
	ActionCardDeleted       Action = "card_deleted"
	ActionCardMoved         Action = "card_moved"
	ActionCardsReordered    Action = "cards_reordered"
	ActionCardMemberAdded   Action = "card_member_added"
	ActionCardMemberRemoved Action = "card_member_removed"

	ActionCommentAdded  Action = "comment_added"
	ActionCommentHidden Action = "comment_hidden"
	ActionNoteAdded     Action = "note_added"
	ActionNoteHidden    Action = "note_hidden"

	ActionChecklistAdded       Action = "checklist_added"
	ActionChecklistUpdated     Action = "checklist_updated"
	ActionChecklistDeleted     Action = "checklist_deleted"
	ActionChecklistItemAdded   Action = "checklist_item_added"
	ActionChecklistItemUpdated Action = "checklist_item_updated"
	ActionChecklistItemToggled Action = "checklist_item_toggled"
	ActionChecklistItemDeleted Action = "checklist_item_deleted"
)

// Activity is an immutable log entry for an accepted mutation
type Activity struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Actor       primitive.ObjectID  `bson:"actor" json:"actor"`
	Action      Action              `bson:"action" json:"action"`
	Target      primitive.ObjectID  `bson:"target" json:"target"`
	TargetModel TargetModel         `bson:"targetModel" json:"targetModel"`
	Board       *primitive.ObjectID `bson:"board,omitempty" json:"board,omitempty"`
	Details     string              `bson:"details" json:"details"`
	Timestamp   time.Time           `bson:"timestamp" json:"timestamp"`
}

// Notification is a per-recipient record of someone else's mutation
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Recipient   primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Actor       primitive.ObjectID  `bson:"actor" json:"actor"`
	Message     string              `bson:"message" json:"message"`
	Type        Action              `bson:"type" json:"type"`
	Target      primitive.ObjectID  `bson:"target" json:"target"`
	TargetModel TargetModel         `bson:"targetModel" json:"targetModel"`
	Board       *primitive.ObjectID `bson:"board,omitempty" json:"board,omitempty"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	IsHidden    bool                `bson:"isHidden" json:"isHidden"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// ActivityRepository defines append-only storage for activities
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Activity, error)
	// ListByBoard also returns the linked activities recorded elsewhere, such as
	// a card moving off the board
	ListByBoard(ctx context.Context, boardID primitive.ObjectID, linked []primitive.ObjectID, limit int) ([]Activity, error)
	ListByTarget(ctx context.Context, target primitive.ObjectID, limit int) ([]Activity, error)
}

// NotificationRepository defines storage for notifications
type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Notification, error)
	ListByRecipient(ctx context.Context, recipient primitive.ObjectID, includeHidden bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	Hide(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}
