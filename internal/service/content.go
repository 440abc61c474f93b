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

// ContentService handles comments and notes embedded in cards
type ContentService struct {
	loader
	recorder *Recorder
}

// NewContentService creates a new content service
func NewContentService(store domain.Store, recorder *Recorder) *ContentService {
	return &ContentService{loader: loader{store: store}, recorder: recorder}
}

// cardChange records and broadcasts a change to a card's embedded content
type cardChange struct {
	action  domain.Action
	event   realtime.EventType
	entity  primitive.ObjectID
	data    any
	message string
}

// recordCardChange notifies the card's members that still belong to board
func (l loader) recordCardChange(ctx context.Context, recorder *Recorder, actor domain.Actor, card *domain.Card, board *domain.Board, c cardChange) error {
	if _, err := recorder.Record(ctx, Entry{
		Actor:       actor,
		Action:      c.action,
		Target:      card.ID,
		TargetModel: domain.TargetCard,
		Board:       ref(card.Board),
		Details:     c.message,
		Recipients:  activeRecipients(board, card.Members),
	}); err != nil {
		return err
	}

	recorder.Broadcast(ctx, realtime.BoardTopic(card.Board), realtime.Event{
		Type:     c.event,
		EntityID: c.entity.Hex(),
		BoardID:  card.Board.Hex(),
		Data: map[string]any{
			"cardId": card.ID.Hex(),
			"value":  c.data,
		},
		Message: c.message,
	})
	return nil
}

// AddComment appends a comment authored by the actor
func (s *ContentService) AddComment(ctx context.Context, actor domain.Actor, cardID primitive.ObjectID, input domain.CommentCreate) (*domain.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domain.Invalid("text is required")
	}

	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	comment := domain.Comment{
		ID:        primitive.NewObjectID(),
		Author:    actor.ID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Cards().AppendComment(ctx, cardID, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionCommentAdded,
		event:   realtime.EventCommentAdded,
		entity:  comment.ID,
		data:    comment,
		message: fmt.Sprintf("%s commented on card %q", actor.DisplayName(), card.Title),
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// HideComment soft-deletes a comment. Only its author may hide it, and only once.
func (s *ContentService) HideComment(ctx context.Context, actor domain.Actor, cardID, commentID primitive.ObjectID) error {
	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return err
	}

	comment, ok := card.Comment(commentID)
	if !ok {
		return domain.NotFound("comment not found")
	}
	if comment.Author != actor.ID {
		return domain.Forbidden("only the author can hide this comment")
	}
	if comment.IsDeleted {
		return domain.Conflict("comment is already hidden")
	}

	if err := s.store.Cards().HideComment(ctx, cardID, commentID); err != nil {
		return fmt.Errorf("failed to hide comment: %w", err)
	}

	return s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionCommentHidden,
		event:   realtime.EventCommentHidden,
		entity:  commentID,
		message: fmt.Sprintf("%s removed a comment on card %q", actor.DisplayName(), card.Title),
	})
}

// AddNote appends a note authored by the actor
func (s *ContentService) AddNote(ctx context.Context, actor domain.Actor, cardID primitive.ObjectID, input domain.NoteCreate) (*domain.Note, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, domain.Invalid("content is required")
	}

	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	note := domain.Note{
		ID:        primitive.NewObjectID(),
		Author:    actor.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Cards().AppendNote(ctx, cardID, note); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionNoteAdded,
		event:   realtime.EventNoteAdded,
		entity:  note.ID,
		data:    note,
		message: fmt.Sprintf("%s added a note to card %q", actor.DisplayName(), card.Title),
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// HideNote soft-deletes a note. Only its author may hide it, and only once.
func (s *ContentService) HideNote(ctx context.Context, actor domain.Actor, cardID, noteID primitive.ObjectID) error {
	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return err
	}

	note, ok := card.Note(noteID)
	if !ok {
		return domain.NotFound("note not found")
	}
	if note.Author != actor.ID {
		return domain.Forbidden("only the author can hide this note")
	}
	if note.IsDeleted {
		return domain.Conflict("note is already hidden")
	}

	if err := s.store.Cards().HideNote(ctx, cardID, noteID); err != nil {
		return fmt.Errorf("failed to hide note: %w", err)
	}

	return s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionNoteHidden,
		event:   realtime.EventNoteHidden,
		entity:  noteID,
		message: fmt.Sprintf("%s removed a note on card %q", actor.DisplayName(), card.Title),
	})
}
