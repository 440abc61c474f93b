package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

// WorkspaceService handles workspace operations
type WorkspaceService struct {
	loader
	recorder *Recorder
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(store domain.Store, recorder *Recorder) *WorkspaceService {
	return &WorkspaceService{loader: loader{store: store}, recorder: recorder}
}

// Create creates a new workspace owned by the actor
func (s *WorkspaceService) Create(ctx context.Context, actor domain.Actor, input domain.WorkspaceCreate) (*domain.Workspace, error) {
	now := time.Now().UTC()
	ws := &domain.Workspace{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		Owner:       actor.ID,
		Members:     []primitive.ObjectID{actor.ID},
		IsPublic:    input.IsPublic,
		Activities:  []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Workspaces().Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	msg := fmt.Sprintf("%s created workspace %q", actor.DisplayName(), ws.Name)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionWorkspaceCreated,
		Target:      ws.ID,
		TargetModel: domain.TargetWorkspace,
		Details:     msg,
	}); err != nil {
		return nil, err
	}

	s.recorder.Broadcast(ctx, realtime.WorkspaceTopic(ws.ID), realtime.Event{
		Type: realtime.EventWorkspaceCreated, EntityID: ws.ID.Hex(), Data: ws, Message: msg,
	})
	return s.liveWorkspace(ctx, ws.ID)
}

// List returns the live workspaces the actor belongs to
func (s *WorkspaceService) List(ctx context.Context, actor domain.Actor) ([]domain.Workspace, error) {
	workspaces, err := s.store.Workspaces().ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// Get returns a workspace visible to the actor
func (s *WorkspaceService) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Workspace, error) {
	ws, err := s.liveWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ws.IsPublic && !IsWorkspaceMember(ws, actor.ID) {
		return nil, domain.Forbidden("not a member of this workspace")
	}
	return ws, nil
}

// Update changes workspace fields. Only the owner may update.
func (s *WorkspaceService) Update(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.WorkspaceUpdate) (*domain.Workspace, error) {
	ws, err := s.liveWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(ws, actor, "workspace"); err != nil {
		return nil, err
	}

	if err := s.store.Workspaces().Update(ctx, id, input); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	msg := fmt.Sprintf("%s updated workspace %q", actor.DisplayName(), ws.Name)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionWorkspaceUpdated,
		Target:      id,
		TargetModel: domain.TargetWorkspace,
		Details:     msg,
		Recipients:  ws.Members,
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.WorkspaceTopic(id), realtime.Event{
		Type: realtime.EventWorkspaceUpdated, EntityID: id.Hex(), Data: updated, Message: msg,
	})
	return updated, nil
}

// Delete soft-deletes a workspace and every board in it. Only the owner may delete.
func (s *WorkspaceService) Delete(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	ws, err := s.liveWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(ws, actor, "workspace"); err != nil {
		return err
	}

	boards, err := s.store.Boards().ListByWorkspace(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list workspace boards: %w", err)
	}
	for _, b := range boards {
		if err := deleteBoardTree(ctx, s.store, b.ID); err != nil {
			return err
		}
	}

	if err := s.store.Workspaces().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	msg := fmt.Sprintf("%s deleted workspace %q", actor.DisplayName(), ws.Name)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionWorkspaceDeleted,
		Target:      id,
		TargetModel: domain.TargetWorkspace,
		Details:     msg,
		Recipients:  ws.Members,
	}); err != nil {
		return err
	}

	s.recorder.Broadcast(ctx, realtime.WorkspaceTopic(id), realtime.Event{
		Type: realtime.EventWorkspaceDeleted, EntityID: id.Hex(), Message: msg,
	})
	for _, b := range boards {
		s.recorder.CloseRoom(ctx, realtime.BoardTopic(b.ID))
	}
	s.recorder.CloseRoom(ctx, realtime.WorkspaceTopic(id))
	return nil
}

// ListBoards returns the live boards of a workspace the actor is an active member of
func (s *WorkspaceService) ListBoards(ctx context.Context, actor domain.Actor, id primitive.ObjectID) ([]domain.Board, error) {
	ws, err := s.liveWorkspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsWorkspaceMember(ws, actor.ID) {
		return nil, domain.Forbidden("not a member of this workspace")
	}

	boards, err := s.store.Boards().ListByWorkspace(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	out := make([]domain.Board, 0, len(boards))
	for i := range boards {
		if IsActiveMember(&boards[i], actor.ID) {
			out = append(out, boards[i])
		}
	}
	return out, nil
}

// deleteBoardTree soft-deletes a board with its lists and cards. Ordering arrays are
// emptied before the entities they reference are deleted.
func deleteBoardTree(ctx context.Context, store domain.Store, boardID primitive.ObjectID) error {
	if err := store.Boards().SetListOrder(ctx, boardID, []primitive.ObjectID{}); err != nil {
		return fmt.Errorf("failed to clear list order: %w", err)
	}
	if err := store.Lists().SoftDeleteByBoard(ctx, boardID); err != nil {
		return fmt.Errorf("failed to delete board lists: %w", err)
	}
	if err := store.Cards().SoftDeleteByBoard(ctx, boardID); err != nil {
		return fmt.Errorf("failed to delete board cards: %w", err)
	}
	if err := store.Boards().SoftDelete(ctx, boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}
