package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

const defaultActivityLimit = 50

// BoardService handles boards and their membership
type BoardService struct {
	loader
	recorder  *Recorder
	directory *UserDirectory
}

// NewBoardService creates a new board service
func NewBoardService(store domain.Store, recorder *Recorder, directory *UserDirectory) *BoardService {
	return &BoardService{loader: loader{store: store}, recorder: recorder, directory: directory}
}

// Create creates a board in a workspace the actor belongs to. The actor becomes owner and sole member.
func (s *BoardService) Create(ctx context.Context, actor domain.Actor, input domain.BoardCreate) (*domain.Board, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	workspaceID, err := domain.ParseID("workspaceId", input.WorkspaceID)
	if err != nil {
		return nil, err
	}

	ws, err := s.liveWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !IsWorkspaceMember(ws, actor.ID) {
		return nil, domain.Forbidden("not a member of this workspace")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	now := time.Now().UTC()
	board := &domain.Board{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  input.Description,
		Owner:        actor.ID,
		Workspace:    workspaceID,
		Members:      []domain.BoardMember{{User: actor.ID, IsActive: true, JoinedAt: now}},
		InvitedUsers: []primitive.ObjectID{},
		ListOrderIDs: []primitive.ObjectID{},
		Visibility:   visibility,
		Background:   input.Background,
		Activities:   []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Boards().Create(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	msg := fmt.Sprintf("%s created board %q", actor.DisplayName(), board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionBoardCreated,
		Target:      board.ID,
		TargetModel: domain.TargetBoard,
		Board:       ref(board.ID),
		Details:     msg,
	}); err != nil {
		return nil, err
	}

	created, err := s.liveBoard(ctx, board.ID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.WorkspaceTopic(workspaceID),
		boardEvent(realtime.EventBoardCreated, board.ID, board.ID, created, msg))
	return created, nil
}

// List returns the live boards the actor is an active member of
func (s *BoardService) List(ctx context.Context, actor domain.Actor) ([]domain.Board, error) {
	boards, err := s.store.Boards().ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// Get returns a board. A deleted board is only returned to its owner.
func (s *BoardService) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Board, error) {
	return s.auditBoard(ctx, id, actor)
}

// Update changes board fields. Any active member may update.
func (s *BoardService) Update(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.BoardUpdate) (*domain.Board, error) {
	board, err := s.memberBoard(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		if t == "" {
			return nil, domain.Invalid("title cannot be empty")
		}
		input.Title = &t
	}

	if err := s.store.Boards().Update(ctx, id, input); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	msg := fmt.Sprintf("%s updated board %q", actor.DisplayName(), board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionBoardUpdated,
		Target:      id,
		TargetModel: domain.TargetBoard,
		Board:       ref(id),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(id), boardEvent(realtime.EventBoardUpdated, id, id, updated, msg))
	return updated, nil
}

// InviteMember adds a user to the board and its workspace. Only the owner may invite.
// A past member is re-activated; an active member yields Conflict.
func (s *BoardService) InviteMember(ctx context.Context, actor domain.Actor, boardID primitive.ObjectID, input domain.MemberInvite) (*domain.Board, error) {
	board, err := s.liveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(board, actor, "board"); err != nil {
		return nil, err
	}

	user, err := s.directory.Resolve(ctx, input.User)
	if err != nil {
		return nil, err
	}

	member, exists := board.Member(user.ID)
	switch {
	case exists && member.IsActive:
		return nil, domain.Conflict("user is already an active board member")
	case exists:
		err = s.store.Boards().SetMemberActive(ctx, boardID, user.ID, true)
	default:
		err = s.store.Boards().AddMember(ctx, boardID, domain.BoardMember{
			User:     user.ID,
			IsActive: true,
			JoinedAt: time.Now().UTC(),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add board member: %w", err)
	}

	if err := s.store.Boards().AddInvited(ctx, boardID, user.ID); err != nil {
		return nil, fmt.Errorf("failed to record invitation: %w", err)
	}
	if err := s.store.Workspaces().AddMember(ctx, board.Workspace, user.ID); err != nil {
		return nil, fmt.Errorf("failed to add workspace member: %w", err)
	}

	msg := fmt.Sprintf("%s added %s to board %q", actor.DisplayName(), displayUser(user), board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionMemberInvited,
		Target:      boardID,
		TargetModel: domain.TargetBoard,
		Board:       ref(boardID),
		Details:     msg,
		Recipients:  append(board.ActiveMemberIDs(), user.ID),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(boardID),
		boardEvent(realtime.EventBoardMemberAdded, user.ID, boardID, updated.Members, msg))
	return updated, nil
}

// RemoveMember turns an active member into a past member and drops them from the workspace.
// Only the owner may remove members and the owner cannot be removed.
func (s *BoardService) RemoveMember(ctx context.Context, actor domain.Actor, boardID, userID primitive.ObjectID) (*domain.Board, error) {
	board, err := s.liveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(board, actor, "board"); err != nil {
		return nil, err
	}
	if IsOwner(board, userID) {
		return nil, domain.Forbidden("the board owner cannot be removed")
	}
	if !IsActiveMember(board, userID) {
		return nil, domain.NotFound("user is not an active board member")
	}

	if err := s.store.Boards().SetMemberActive(ctx, boardID, userID, false); err != nil {
		return nil, fmt.Errorf("failed to remove board member: %w", err)
	}
	if err := s.store.Workspaces().RemoveMember(ctx, board.Workspace, userID); err != nil {
		return nil, fmt.Errorf("failed to remove workspace member: %w", err)
	}
	s.recorder.RevokeUser(ctx, realtime.BoardTopic(boardID), userID)
	s.recorder.RevokeUser(ctx, realtime.WorkspaceTopic(board.Workspace), userID)

	if err := s.store.Cards().PullMemberByBoard(ctx, boardID, userID); err != nil {
		return nil, fmt.Errorf("failed to unassign removed member from cards: %w", err)
	}

	name := userID.Hex()
	if user, err := s.directory.Get(ctx, userID); err == nil {
		name = displayUser(user)
	}

	msg := fmt.Sprintf("%s removed %s from board %q", actor.DisplayName(), name, board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionMemberRemoved,
		Target:      boardID,
		TargetModel: domain.TargetBoard,
		Board:       ref(boardID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(boardID),
		boardEvent(realtime.EventBoardMemberRemoved, userID, boardID, updated.Members, msg))
	return updated, nil
}

// Delete soft-deletes the board with its lists and cards. Only the owner may delete.
func (s *BoardService) Delete(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	board, err := s.liveBoard(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(board, actor, "board"); err != nil {
		return err
	}

	if err := deleteBoardTree(ctx, s.store, id); err != nil {
		return err
	}

	msg := fmt.Sprintf("%s deleted board %q", actor.DisplayName(), board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionBoardDeleted,
		Target:      id,
		TargetModel: domain.TargetBoard,
		Board:       ref(id),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return err
	}

	ev := boardEvent(realtime.EventBoardDeleted, id, id, nil, msg)
	s.recorder.Broadcast(ctx, realtime.BoardTopic(id), ev)
	s.recorder.Broadcast(ctx, realtime.WorkspaceTopic(board.Workspace), ev)
	s.recorder.CloseRoom(ctx, realtime.BoardTopic(id))
	return nil
}

// Activities returns the newest activities recorded on the board
func (s *BoardService) Activities(ctx context.Context, actor domain.Actor, id primitive.ObjectID, limit int) ([]domain.Activity, error) {
	board, err := s.auditBoard(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	activities, err := s.store.Activities().ListByBoard(ctx, id, board.Activities, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// canView allows active members, anyone on public boards, and workspace
// members on workspace-visible boards.
func (l loader) canView(ctx context.Context, board *domain.Board, actor domain.Actor) error {
	if IsActiveMember(board, actor.ID) {
		return nil
	}
	switch board.Visibility {
	case domain.VisibilityPublic:
		return nil
	case domain.VisibilityWorkspace:
		ws, err := l.liveWorkspace(ctx, board.Workspace)
		if err != nil {
			return err
		}
		if IsWorkspaceMember(ws, actor.ID) {
			return nil
		}
	}
	return domain.Forbidden("not an active member of this board")
}

// auditBoard loads a board for reading. Deleted boards stay readable by their owner only.
func (l loader) auditBoard(ctx context.Context, id primitive.ObjectID, actor domain.Actor) (*domain.Board, error) {
	board, err := l.store.Boards().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if board.IsDeleted {
		if IsOwner(board, actor.ID) {
			return board, nil
		}
		return nil, domain.NotFound("board not found")
	}
	if err := l.canView(ctx, board, actor); err != nil {
		return nil, err
	}
	return board, nil
}

func displayUser(u *domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
