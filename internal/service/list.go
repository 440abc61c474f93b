package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

// ListService handles lists and the ordering arrays of boards and lists
type ListService struct {
	loader
	recorder *Recorder
}

// NewListService creates a new list service
func NewListService(store domain.Store, recorder *Recorder) *ListService {
	return &ListService{loader: loader{store: store}, recorder: recorder}
}

// Create adds a list at the end of the board's list order
func (s *ListService) Create(ctx context.Context, actor domain.Actor, input domain.ListCreate) (*domain.List, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	boardID, err := domain.ParseID("boardId", input.BoardID)
	if err != nil {
		return nil, err
	}

	board, err := s.memberBoard(ctx, boardID, actor)
	if err != nil {
		return nil, err
	}

	position := float64(len(board.ListOrderIDs))
	if input.Position != nil {
		position = *input.Position
	}

	now := time.Now().UTC()
	list := &domain.List{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Board:        boardID,
		Position:     position,
		CardOrderIDs: []primitive.ObjectID{},
		Activities:   []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Lists().Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	if err := s.store.Boards().AppendListOrder(ctx, boardID, list.ID); err != nil {
		return nil, fmt.Errorf("failed to append list order: %w", err)
	}

	msg := fmt.Sprintf("%s added list %q to board %q", actor.DisplayName(), title, board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionListCreated,
		Target:      list.ID,
		TargetModel: domain.TargetList,
		Board:       ref(boardID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	created, err := s.liveList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(boardID),
		boardEvent(realtime.EventListCreated, list.ID, boardID, created, msg))
	return created, nil
}

// BoardLists returns the live lists of a board in display order, each with its live cards
func (s *ListService) BoardLists(ctx context.Context, actor domain.Actor, boardID primitive.ObjectID) ([]domain.ListWithCards, error) {
	board, err := s.liveBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, board, actor); err != nil {
		return nil, err
	}

	lists, err := s.store.Lists().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}

	ordered, stragglers := arrange(board.ListOrderIDs, lists, func(l *domain.List) primitive.ObjectID { return l.ID })
	if len(stragglers) > 0 {
		log.Warn().
			Str("board_id", boardID.Hex()).
			Int("lists", len(stragglers)).
			Msg("lists missing from board list order")
	}

	out := make([]domain.ListWithCards, 0, len(ordered))
	for _, l := range ordered {
		cards, err := s.orderedCards(ctx, &l)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ListWithCards{List: l, Cards: cards})
	}
	return out, nil
}

// orderedCards returns the live cards of list in cardOrderIds order
func (l loader) orderedCards(ctx context.Context, list *domain.List) ([]domain.Card, error) {
	cards, err := l.store.Cards().ListByList(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	ordered, stragglers := arrange(list.CardOrderIDs, cards, func(c *domain.Card) primitive.ObjectID { return c.ID })
	if len(stragglers) > 0 {
		log.Warn().
			Str("list_id", list.ID.Hex()).
			Int("cards", len(stragglers)).
			Msg("cards missing from list card order")
	}
	return ordered, nil
}

// Get returns a list. A deleted list is only returned to the board owner.
func (s *ListService) Get(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.List, error) {
	list, err := s.store.Lists().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	board, err := s.store.Boards().GetByID(ctx, list.Board)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if list.IsDeleted || board.IsDeleted {
		if IsOwner(board, actor.ID) {
			return list, nil
		}
		return nil, domain.NotFound("list not found")
	}
	if err := s.canView(ctx, board, actor); err != nil {
		return nil, err
	}
	return list, nil
}

// Update changes the title or position hint of a list
func (s *ListService) Update(ctx context.Context, actor domain.Actor, id primitive.ObjectID, input domain.ListUpdate) (*domain.List, error) {
	list, board, err := s.memberList(ctx, id, actor)
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

	if err := s.store.Lists().Update(ctx, id, input); err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	msg := fmt.Sprintf("%s updated list %q", actor.DisplayName(), list.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionListUpdated,
		Target:      id,
		TargetModel: domain.TargetList,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	updated, err := s.liveList(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventListUpdated, id, board.ID, updated, msg))
	return updated, nil
}

// UpdateListOrder replaces the board's list order. The new order must contain
// every live list of the board exactly once and nothing else.
func (s *ListService) UpdateListOrder(ctx context.Context, actor domain.Actor, boardID primitive.ObjectID, order []primitive.ObjectID) ([]primitive.ObjectID, error) {
	board, err := s.memberBoard(ctx, boardID, actor)
	if err != nil {
		return nil, err
	}

	live, err := s.store.Lists().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}

	lookup := func(ctx context.Context, id primitive.ObjectID) (childRef, error) {
		l, err := s.store.Lists().GetByID(ctx, id)
		if err != nil {
			return childRef{}, err
		}
		return childRef{parent: l.Board, deleted: l.IsDeleted}, nil
	}
	if err := validateOrder(ctx, "list", boardID, order, listIDs(live), lookup); err != nil {
		return nil, err
	}

	if err := s.store.Boards().SetListOrder(ctx, boardID, order); err != nil {
		return nil, fmt.Errorf("failed to update list order: %w", err)
	}

	msg := fmt.Sprintf("%s reordered lists on board %q", actor.DisplayName(), board.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionListsReordered,
		Target:      boardID,
		TargetModel: domain.TargetBoard,
		Board:       ref(boardID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	s.recorder.Broadcast(ctx, realtime.BoardTopic(boardID),
		boardEvent(realtime.EventListReordered, boardID, boardID, map[string]any{"listOrderIds": order}, msg))
	return order, nil
}

// Delete soft-deletes a list and its cards and prunes the board's list order.
// Only the board owner may delete lists.
func (s *ListService) Delete(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	list, err := s.liveList(ctx, id)
	if err != nil {
		return err
	}
	board, err := s.liveBoard(ctx, list.Board)
	if err != nil {
		return err
	}
	if err := requireOwner(board, actor, "board"); err != nil {
		return err
	}

	if err := s.store.Lists().SetCardOrder(ctx, id, []primitive.ObjectID{}); err != nil {
		return fmt.Errorf("failed to clear card order: %w", err)
	}
	if err := s.store.Cards().SoftDeleteByList(ctx, id); err != nil {
		return fmt.Errorf("failed to delete list cards: %w", err)
	}

	live, err := s.store.Lists().ListByBoard(ctx, board.ID)
	if err != nil {
		return fmt.Errorf("failed to list lists: %w", err)
	}
	liveIDs := listIDs(live)
	prune := []primitive.ObjectID{id}
	for _, lid := range board.ListOrderIDs {
		if lid != id && !domain.ContainsID(liveIDs, lid) {
			prune = append(prune, lid)
		}
	}
	if len(prune) > 1 {
		log.Warn().
			Str("board_id", board.ID.Hex()).
			Int("stale", len(prune)-1).
			Msg("pruning stale ids from board list order")
	}
	if err := s.store.Boards().PullListOrder(ctx, board.ID, prune...); err != nil {
		return fmt.Errorf("failed to prune list order: %w", err)
	}

	if err := s.store.Lists().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	msg := fmt.Sprintf("%s deleted list %q", actor.DisplayName(), list.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionListDeleted,
		Target:      id,
		TargetModel: domain.TargetList,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return err
	}

	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventListDeleted, id, board.ID, nil, msg))
	return nil
}

// UpdateCardOrder replaces a list's card order. The new order must contain
// every live card of the list exactly once and nothing else.
func (s *ListService) UpdateCardOrder(ctx context.Context, actor domain.Actor, listID primitive.ObjectID, order []primitive.ObjectID) ([]primitive.ObjectID, error) {
	list, board, err := s.memberList(ctx, listID, actor)
	if err != nil {
		return nil, err
	}

	live, err := s.store.Cards().ListByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	lookup := func(ctx context.Context, id primitive.ObjectID) (childRef, error) {
		c, err := s.store.Cards().GetByID(ctx, id)
		if err != nil {
			return childRef{}, err
		}
		return childRef{parent: c.List, deleted: c.IsDeleted}, nil
	}
	if err := validateOrder(ctx, "card", listID, order, cardIDs(live), lookup); err != nil {
		return nil, err
	}

	if err := s.store.Lists().SetCardOrder(ctx, listID, order); err != nil {
		return nil, fmt.Errorf("failed to update card order: %w", err)
	}

	msg := fmt.Sprintf("%s reordered cards in list %q", actor.DisplayName(), list.Title)
	if _, err := s.recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      domain.ActionCardsReordered,
		Target:      listID,
		TargetModel: domain.TargetList,
		Board:       ref(board.ID),
		Details:     msg,
		Recipients:  board.ActiveMemberIDs(),
	}); err != nil {
		return nil, err
	}

	s.recorder.Broadcast(ctx, realtime.BoardTopic(board.ID),
		boardEvent(realtime.EventCardReordered, listID, board.ID, map[string]any{"cardOrderIds": order}, msg))
	return order, nil
}
