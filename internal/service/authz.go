package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

// Owned is any entity with a single owner
type Owned interface {
	OwnerID() primitive.ObjectID
}

// IsActiveMember reports whether userID holds an active membership on board
func IsActiveMember(board *domain.Board, userID primitive.ObjectID) bool {
	m, ok := board.Member(userID)
	return ok && m.IsActive
}

// IsOwner reports whether userID owns entity
func IsOwner(entity Owned, userID primitive.ObjectID) bool {
	return entity.OwnerID() == userID
}

// IsWorkspaceMember reports whether userID belongs to workspace. The owner always does.
func IsWorkspaceMember(workspace *domain.Workspace, userID primitive.ObjectID) bool {
	return workspace.HasMember(userID)
}

func requireActiveMember(board *domain.Board, actor domain.Actor) error {
	if !IsActiveMember(board, actor.ID) {
		return domain.Forbidden("not an active member of this board")
	}
	return nil
}

func requireOwner(entity Owned, actor domain.Actor, what string) error {
	if !IsOwner(entity, actor.ID) {
		return domain.Forbidden("only the %s owner can do this", what)
	}
	return nil
}

// RoomGate authorizes realtime room joins: boards need an active membership
// and workspaces need workspace membership.
type RoomGate struct {
	loader
}

// NewRoomGate creates a room gate
func NewRoomGate(store domain.Store) *RoomGate {
	return &RoomGate{loader: loader{store: store}}
}

// Authorize implements realtime.RoomAuthorizer
func (g *RoomGate) Authorize(ctx context.Context, userID string, room realtime.Room) error {
	uid, err := domain.ParseID("user id", userID)
	if err != nil {
		return err
	}

	switch room.Kind {
	case realtime.RoomBoard:
		id, err := domain.ParseID("board id", room.ID)
		if err != nil {
			return err
		}
		board, err := g.liveBoard(ctx, id)
		if err != nil {
			return err
		}
		if !IsActiveMember(board, uid) {
			return domain.Forbidden("not an active member of this board")
		}
	case realtime.RoomWorkspace:
		id, err := domain.ParseID("workspace id", room.ID)
		if err != nil {
			return err
		}
		ws, err := g.liveWorkspace(ctx, id)
		if err != nil {
			return err
		}
		if !IsWorkspaceMember(ws, uid) {
			return domain.Forbidden("not a member of this workspace")
		}
	default:
		return domain.Invalid("unknown room kind %q", room.Kind)
	}
	return nil
}

// loader fetches entities and hides soft-deleted ones
type loader struct {
	store domain.Store
}

func (l loader) liveWorkspace(ctx context.Context, id primitive.ObjectID) (*domain.Workspace, error) {
	ws, err := l.store.Workspaces().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws.IsDeleted {
		return nil, domain.NotFound("workspace not found")
	}
	return ws, nil
}

func (l loader) liveBoard(ctx context.Context, id primitive.ObjectID) (*domain.Board, error) {
	board, err := l.store.Boards().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if board.IsDeleted {
		return nil, domain.NotFound("board not found")
	}
	return board, nil
}

// memberBoard loads a live board the actor is an active member of
func (l loader) memberBoard(ctx context.Context, id primitive.ObjectID, actor domain.Actor) (*domain.Board, error) {
	board, err := l.liveBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireActiveMember(board, actor); err != nil {
		return nil, err
	}
	return board, nil
}

func (l loader) liveList(ctx context.Context, id primitive.ObjectID) (*domain.List, error) {
	list, err := l.store.Lists().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	if list.IsDeleted {
		return nil, domain.NotFound("list not found")
	}
	return list, nil
}

// memberList loads a live list together with its board, requiring active membership
func (l loader) memberList(ctx context.Context, id primitive.ObjectID, actor domain.Actor) (*domain.List, *domain.Board, error) {
	list, err := l.liveList(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	board, err := l.memberBoard(ctx, list.Board, actor)
	if err != nil {
		return nil, nil, err
	}
	return list, board, nil
}

func (l loader) liveCard(ctx context.Context, id primitive.ObjectID) (*domain.Card, error) {
	card, err := l.store.Cards().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card.IsDeleted {
		return nil, domain.NotFound("card not found")
	}
	return card, nil
}

// memberCard loads a live card together with its board, requiring active membership
func (l loader) memberCard(ctx context.Context, id primitive.ObjectID, actor domain.Actor) (*domain.Card, *domain.Board, error) {
	card, err := l.liveCard(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	board, err := l.memberBoard(ctx, card.Board, actor)
	if err != nil {
		return nil, nil, err
	}
	return card, board, nil
}
