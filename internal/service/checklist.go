package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

// ChecklistService handles checklists and their version-guarded items
type ChecklistService struct {
	loader
	recorder *Recorder
}

// NewChecklistService creates a new checklist service
func NewChecklistService(store domain.Store, recorder *Recorder) *ChecklistService {
	return &ChecklistService{loader: loader{store: store}, recorder: recorder}
}

func liveChecklist(card *domain.Card, checklistID primitive.ObjectID) (*domain.Checklist, error) {
	cl, ok := card.Checklist(checklistID)
	if !ok || cl.IsDeleted {
		return nil, domain.NotFound("checklist not found")
	}
	return cl, nil
}

// AddChecklist appends an empty checklist to a card
func (s *ChecklistService) AddChecklist(ctx context.Context, actor domain.Actor, cardID primitive.ObjectID, input domain.ChecklistCreate) (*domain.Checklist, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}

	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	cl := domain.Checklist{
		ID:    primitive.NewObjectID(),
		Title: title,
		Items: []domain.ChecklistItem{},
	}
	if err := s.store.Cards().AppendChecklist(ctx, cardID, cl); err != nil {
		return nil, fmt.Errorf("failed to add checklist: %w", err)
	}

	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionChecklistAdded,
		event:   realtime.EventChecklistAdded,
		entity:  cl.ID,
		data:    cl,
		message: fmt.Sprintf("%s added checklist %q to card %q", actor.DisplayName(), title, card.Title),
	})
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// EditChecklist renames a live checklist
func (s *ChecklistService) EditChecklist(ctx context.Context, actor domain.Actor, cardID, checklistID primitive.ObjectID, input domain.ChecklistCreate) (*domain.Checklist, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}

	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	cl, err := liveChecklist(card, checklistID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Cards().RenameChecklist(ctx, cardID, checklistID, title); err != nil {
		return nil, fmt.Errorf("failed to rename checklist: %w", err)
	}
	renamed := *cl
	renamed.Title = title

	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionChecklistUpdated,
		event:   realtime.EventChecklistUpdated,
		entity:  checklistID,
		data:    renamed,
		message: fmt.Sprintf("%s renamed checklist %q to %q", actor.DisplayName(), cl.Title, title),
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// DeleteChecklist soft-deletes a checklist. Deleting twice yields Conflict.
func (s *ChecklistService) DeleteChecklist(ctx context.Context, actor domain.Actor, cardID, checklistID primitive.ObjectID) error {
	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return err
	}
	cl, ok := card.Checklist(checklistID)
	if !ok {
		return domain.NotFound("checklist not found")
	}
	if cl.IsDeleted {
		return domain.Conflict("checklist is already deleted")
	}

	if err := s.store.Cards().DeleteChecklist(ctx, cardID, checklistID); err != nil {
		return fmt.Errorf("failed to delete checklist: %w", err)
	}

	return s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionChecklistDeleted,
		event:   realtime.EventChecklistDeleted,
		entity:  checklistID,
		message: fmt.Sprintf("%s deleted checklist %q from card %q", actor.DisplayName(), cl.Title, card.Title),
	})
}

// expectedVersion resolves the version a mutation is guarded by. A caller-supplied
// version that no longer matches the card is rejected before any write.
func expectedVersion(card *domain.Card, supplied *int64) (int64, error) {
	if supplied == nil {
		return card.Version, nil
	}
	if *supplied != card.Version {
		return 0, domain.Conflict("card version mismatch: expected %d, current %d", *supplied, card.Version).
			WithDetails(map[string]any{"currentVersion": card.Version})
	}
	return *supplied, nil
}

// AddChecklistItem appends an item and returns it with the new card version
func (s *ChecklistService) AddChecklistItem(ctx context.Context, actor domain.Actor, cardID, checklistID primitive.ObjectID, input domain.ChecklistItemCreate) (*domain.ChecklistItemResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domain.Invalid("text is required")
	}

	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	cl, err := liveChecklist(card, checklistID)
	if err != nil {
		return nil, err
	}
	expected, err := expectedVersion(card, input.Version)
	if err != nil {
		return nil, err
	}

	item := domain.ChecklistItem{ID: primitive.NewObjectID(), Text: text}
	version, err := s.store.Cards().PushChecklistItem(ctx, cardID, checklistID, expected, item)
	if err != nil {
		return nil, fmt.Errorf("failed to add checklist item: %w", err)
	}

	result := &domain.ChecklistItemResult{Item: item, Version: version}
	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  domain.ActionChecklistItemAdded,
		event:   realtime.EventChecklistItemAdded,
		entity:  item.ID,
		data:    result,
		message: fmt.Sprintf("%s added %q to checklist %q", actor.DisplayName(), text, cl.Title),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// itemMutation describes one version-guarded change to a checklist item
type itemMutation struct {
	version *int64
	patch   func(item *domain.ChecklistItem) domain.ChecklistItemPatch
	action  domain.Action
	event   realtime.EventType
	message func(actor domain.Actor, item *domain.ChecklistItem) string
}

func (s *ChecklistService) mutateItem(ctx context.Context, actor domain.Actor, cardID, checklistID, itemID primitive.ObjectID, m itemMutation) (*domain.ChecklistItemResult, error) {
	card, board, err := s.memberCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	cl, err := liveChecklist(card, checklistID)
	if err != nil {
		return nil, err
	}
	item, ok := cl.Item(itemID)
	if !ok || item.IsDeleted {
		return nil, domain.NotFound("checklist item not found")
	}
	expected, err := expectedVersion(card, m.version)
	if err != nil {
		return nil, err
	}

	patch := m.patch(item)
	version, err := s.store.Cards().PatchChecklistItem(ctx, cardID, checklistID, itemID, expected, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}

	after := *item
	if patch.Text != nil {
		after.Text = *patch.Text
	}
	if patch.Completed != nil {
		after.Completed = *patch.Completed
	}
	if patch.IsDeleted != nil {
		after.IsDeleted = *patch.IsDeleted
	}

	result := &domain.ChecklistItemResult{Item: after, Version: version}
	err = s.recordCardChange(ctx, s.recorder, actor, card, board, cardChange{
		action:  m.action,
		event:   m.event,
		entity:  itemID,
		data:    result,
		message: m.message(actor, &after),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleChecklistItem flips the completed flag of an item
func (s *ChecklistService) ToggleChecklistItem(ctx context.Context, actor domain.Actor, cardID, checklistID, itemID primitive.ObjectID, input domain.VersionGuard) (*domain.ChecklistItemResult, error) {
	return s.mutateItem(ctx, actor, cardID, checklistID, itemID, itemMutation{
		version: input.Version,
		patch: func(item *domain.ChecklistItem) domain.ChecklistItemPatch {
			completed := !item.Completed
			return domain.ChecklistItemPatch{Completed: &completed}
		},
		action: domain.ActionChecklistItemToggled,
		event:  realtime.EventChecklistItemToggled,
		message: func(actor domain.Actor, item *domain.ChecklistItem) string {
			if item.Completed {
				return fmt.Sprintf("%s completed %q", actor.DisplayName(), item.Text)
			}
			return fmt.Sprintf("%s reopened %q", actor.DisplayName(), item.Text)
		},
	})
}

// EditChecklistItem replaces the text of an item
func (s *ChecklistService) EditChecklistItem(ctx context.Context, actor domain.Actor, cardID, checklistID, itemID primitive.ObjectID, input domain.ChecklistItemUpdate) (*domain.ChecklistItemResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, domain.Invalid("text is required")
	}
	return s.mutateItem(ctx, actor, cardID, checklistID, itemID, itemMutation{
		version: input.Version,
		patch: func(*domain.ChecklistItem) domain.ChecklistItemPatch {
			return domain.ChecklistItemPatch{Text: &text}
		},
		action: domain.ActionChecklistItemUpdated,
		event:  realtime.EventChecklistItemUpdated,
		message: func(actor domain.Actor, item *domain.ChecklistItem) string {
			return fmt.Sprintf("%s edited checklist item %q", actor.DisplayName(), item.Text)
		},
	})
}

// DeleteChecklistItem soft-deletes an item
func (s *ChecklistService) DeleteChecklistItem(ctx context.Context, actor domain.Actor, cardID, checklistID, itemID primitive.ObjectID, input domain.VersionGuard) (*domain.ChecklistItemResult, error) {
	return s.mutateItem(ctx, actor, cardID, checklistID, itemID, itemMutation{
		version: input.Version,
		patch: func(*domain.ChecklistItem) domain.ChecklistItemPatch {
			deleted := true
			return domain.ChecklistItemPatch{IsDeleted: &deleted}
		},
		action: domain.ActionChecklistItemDeleted,
		event:  realtime.EventChecklistItemDeleted,
		message: func(actor domain.Actor, item *domain.ChecklistItem) string {
			return fmt.Sprintf("%s removed checklist item %q", actor.DisplayName(), item.Text)
		},
	})
}
