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

// CardService handles cards, their placement and their members
type CardService struct {
	loader
	recorder  *Recorder
	directory *UserDirectory
}

// NewCardService creates a new card service
func NewCardService(store domain.Store, recorder *Recorder, directory *UserDirectory) *CardService {
	return &CardService{loader: loader{store: store}, recorder: recorder, directory: directory}
}

// CardMoved is the payload of a card move event
type CardMoved struct {
	Card        *domain.Card `json:"card"`
	FromListID  string       `json:"fromListId"`
	ToListID    string       `json:"toListId"`
	FromBoardID string       `json:"fromBoardId"`
	ToBoardID   string       `json:"toBoardId"`
}

// Create adds a card at the end of the list's card order
func (s *CardService) Create(ctx context.Context, actor domain.Actor, input domain.CardCreate) (*domain.Card, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	listID, err := domain.ParseID("listId", input.ListID)
	if err != nil {
		return nil, err
	}

	list, board, err := s.memberList(ctx, listID, actor)
	if err != nil {
		return nil, err
	}

	position := float64(len(list.CardOrderIDs))
	if input.Position != nil {
		position = *input.Position
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: input.Description,
		List:        listID,
		Board:       board.ID,
		Members:     []primitive.ObjectID{},
		Position:    position,
		DueDate:     input.DueDate,
		Checklists:  []domain.Checklist{},
		Comments:    []domain.Comment{},
		Notes:       []domain.Note{},
		Activities:  []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Cards().Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	if err := s.store.Lists().AppendCardOrder(ctx, listID, card.ID); err != nil {
		return nil, fmt.Errorf("failed to append card order: %w", err)
	}

	msg := fmt.Sprintf("%s added card %q to list %q", actor.DisplayName(), title, list.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionCardCreated,
		Target:      card.ID,
		TargetModel: domain.TargetCard,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	created, err := s.liveCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventCardCreated, card.ID, board.ID, created, msg))
	return created, nil
}

// ListCards returns the live cards of a list in display order
func (s *CardService) ListCards(ctx context.Context, actor domain.Actor, listID primitive.ObjectID) ([]domain.Card, error) {
	list, err := s.liveList(ctx, listID)
	if err != nil {
		return nil, err
	}
	board, err := s.liveBoard(ctx, list.Board)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, board, actor); err != nil {
		return nil, err
	}
	return s.orderedCards(ctx, list)
}

// Get returns a card. A deleted card is only returned to the board owner.
func (s *CardService) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Card, error) {
	card, err := s.store.Cards().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	board, err := s.store.Boards().GetByID(ctx, card.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if card.IsDeleted || board.IsDeleted {
		if IsOwner(board, actor.ID) {
			return card, nil
		}
		return nil, domain.NotFound("card not found")
	}
	if err := s.canView(ctx, board, actor); err != nil {
		return nil, err
	}
	return card, nil
}

// Update changes card fields and notifies the card's members
func (s *CardService) Update(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.CardUpdate) (*domain.Card, error) {
	card, board, err := s.memberCard(ctx, id, actor)
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

	if err := s.store.Cards().Update(ctx, id, input); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	msg := fmt.Sprintf("%s updated card %q", actor.DisplayName(), card.Title)
	if input.Completed != nil && *input.Completed != card.Completed {
		state := "incomplete"
		if *input.Completed {
			state = "complete"
		}
		msg = fmt.Sprintf("%s marked card %q %s", actor.DisplayName(), card.Title, state)
	}
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionCardUpdated,
		Target:      id,
		TargetModel: domain.TargetCard,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  activeRecipients(board, card.Members),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveCard(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventCardUpdated, id, board.ID, updated, msg))
	return updated, nil
}

// Move relocates a card to a list on the same or another board. The card id is
// pulled from the source list order and inserted into the destination order at
// the requested index, or appended when no index is given.
func (s *CardService) Move(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.CardMove) (*domain.Card, error) {
	destListID, err := domain.ParseID("listId", input.ListID)
	if err != nil {
		return nil, err
	}
	destBoardID, err := domain.ParseID("boardId", input.BoardID)
	if err != nil {
		return nil, err
	}

	card, srcBoard, err := s.memberCard(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	destBoard, err := s.memberBoard(ctx, destBoardID, actor)
	if err != nil {
		return nil, err
	}
	destList, err := s.liveList(ctx, destListID)
	if err != nil {
		return nil, err
	}
	if destList.Board != destBoard.ID {
		return nil, domain.Invalid("list %s does not belong to board %s", destListID.Hex(), destBoardID.Hex())
	}

	srcListID := card.List
	if err := s.store.Lists().PullCardOrder(ctx, srcListID, id); err != nil {
		return nil, fmt.Errorf("failed to remove card from source order: %w", err)
	}
	if err := s.store.Cards().Relocate(ctx, id, destListID, destBoardID); err != nil {
		return nil, fmt.Errorf("failed to move card: %w", err)
	}
	if srcBoard.ID != destBoardID {
		for _, m := range card.Members {
			if IsActiveMember(destBoard, m) {
				continue
			}
			if err := s.store.Cards().RemoveMember(ctx, id, m); err != nil {
				return nil, fmt.Errorf("failed to unassign card member: %w", err)
			}
		}
	}
	if input.Index != nil {
		err = s.store.Lists().InsertCardOrder(ctx, destListID, id, *input.Index)
	} else {
		err = s.store.Lists().AppendCardOrder(ctx, destListID, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert card into destination order: %w", err)
	}

	msg := fmt.Sprintf("%s moved card %q to list %q", actor.DisplayName(), card.Title, destList.Title)
	activity, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionCardMoved,
		Target:      id,
		TargetModel: domain.TargetCard,
		Board:       ref(destBoardID),
		Details:     msg,
		Recipients:  destBoard.ActiveMemberIDs(),
	})
	if err != nil {
		return nil, err
	}
	if srcBoard.ID != destBoardID {
		if err := s.store.Boards().PushActivity(ctx, srcBoard.ID, activity.ID); err != nil {
			return nil, fmt.Errorf("failed to link activity to source board: %w", err)
		}
	}

	moved, err := s.liveCard(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := CardMoved{
		Card:        moved,
		FromListID:  srcListID.Hex(),
		ToListID:    destListID.Hex(),
		FromBoardID: srcBoard.ID.Hex(),
		ToBoardID:   destBoardID.Hex(),
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(destBoardID),
		boardEvent(realtime.EventCardMoved, id, destBoardID, payload, msg))
	if srcBoard.ID != destBoardID {
		s.recorder.Broadcast(ctx, realtime.BoardTopic(srcBoard.ID),
			boardEvent(realtime.EventCardMoved, id, srcBoard.ID, payload, msg))
	}
	return moved, nil
}

// Delete soft-deletes a card after removing it from its list order
func (s *CardService) Delete(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	card, board, err := s.memberCard(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := s.store.Lists().PullCardOrder(ctx, card.List, id); err != nil {
		return fmt.Errorf("failed to remove card from list order: %w", err)
	}
	if err := s.store.Cards().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	msg := fmt.Sprintf("%s deleted card %q", actor.DisplayName(), card.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionCardDeleted,
		Target:      id,
		TargetModel: domain.TargetCard,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return err
	}

	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventCardDeleted, id, board.ID, map[string]string{"listId": card.List.Hex()}, msg))
	return nil
}

// AddMember assigns an active board member to the card
func (s *CardService) AddMember(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.CardMemberAdd) (*domain.Card, error) {
	userID, err := domain.ParseID("userId", input.UserID)
	if err != nil {
		return nil, err
	}

	card, board, err := s.memberCard(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !IsActiveMember(board, userID) {
		return nil, domain.Invalid("user %s is not an active board member", userID.Hex())
	}
	if card.HasMember(userID) {
		return nil, domain.Conflict("user is already assigned to this card")
	}

	if err := s.store.Cards().AddMember(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("failed to add card member: %w", err)
	}

	name := userID.Hex()
	if user, err := s.directory.Get(ctx, userID); err == nil {
		name = displayUser(user)
	}

	msg := fmt.Sprintf("%s assigned %s to card %q", actor.DisplayName(), name, card.Title)
	return s.memberChanged(ctx, actor, card, board, domain.ActionCardMemberAdded, realtime.EventCardMemberAdded,
		msg, append(card.Members, userID))
}

// RemoveMember unassigns a user from the card
func (s *CardService) RemoveMember(ctx context.Context, actor domain.Actor, id, userID primitive.ObjectID) (*domain.Card, error) {
	card, board, err := s.memberCard(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !card.HasMember(userID) {
		return nil, domain.NotFound("user is not assigned to this card")
	}

	if err := s.store.Cards().RemoveMember(ctx, id, userID); err != nil {
		return nil, fmt.Errorf("failed to remove card member: %w", err)
	}

	name := userID.Hex()
	if user, err := s.directory.Get(ctx, userID); err == nil {
		name = displayUser(user)
	}

	msg := fmt.Sprintf("%s unassigned %s from card %q", actor.DisplayName(), name, card.Title)
	return s.memberChanged(ctx, actor, card, board, domain.ActionCardMemberRemoved, realtime.EventCardMemberRemoved,
		msg, card.Members)
}

func (s *CardService) memberChanged(ctx context.Context, actor domain.Actor, card *domain.Card, board *domain.Board, action domain.Action, event realtime.EventType, msg string, recipients []primitive.ObjectID) (*domain.Card, error) {
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      action,
		Target:      card.ID,
		TargetModel: domain.TargetCard,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  activeRecipients(board, recipients),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveCard(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(event, card.ID, board.ID, updated.Members, msg))
	return updated, nil
}

// Activities returns the newest activities recorded on the card
func (s *CardService) Activities(ctx context.Context, actor domain.Actor, id primitive.ObjectID, limit int) ([]domain.Activity, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	activities, err := s.store.Activities().ListByTarget(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}
