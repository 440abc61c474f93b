package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

type cardRepo struct{ s *Store }

func cloneCard(c domain.Card) domain.Card {
	c.Members = cloneIDs(c.Members)
	c.Activities = cloneIDs(c.Activities)
	if c.DueDate != nil {
		d := *c.DueDate
		c.DueDate = &d
	}
	checklists := make([]domain.Checklist, len(c.Checklists))
	for i, cl := range c.Checklists {
		cl.Items = append([]domain.ChecklistItem{}, cl.Items...)
		checklists[i] = cl
	}
	c.Checklists = checklists
	c.Comments = append([]domain.Comment{}, c.Comments...)
	c.Notes = append([]domain.Note{}, c.Notes...)
	return c
}

func (r *cardRepo) Create(_ context.Context, c *domain.Card) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cards[c.ID] = cloneCard(*c)
	return nil
}

func (r *cardRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cards[id]
	if !ok {
		return nil, domain.NotFound("card not found")
	}
	c = cloneCard(c)
	return &c, nil
}

func (r *cardRepo) ListByList(_ context.Context, listID primitive.ObjectID) ([]domain.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Card{}
	for _, c := range r.s.cards {
		if !c.IsDeleted && c.List == listID {
			out = append(out, cloneCard(c))
		}
	}
	sortByCreation(out, func(c domain.Card) time.Time { return c.CreatedAt }, func(c domain.Card) primitive.ObjectID { return c.ID })
	return out, nil
}

// mutate applies fn to a copy of the stored card and commits it only when fn succeeds
func (r *cardRepo) mutate(id primitive.ObjectID, fn func(c *domain.Card) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cards[id]
	if !ok {
		return domain.NotFound("card not found")
	}
	c = cloneCard(c)
	if err := fn(&c); err != nil {
		return err
	}
	c.UpdatedAt = r.s.now()
	r.s.cards[id] = c
	return nil
}

func (r *cardRepo) Update(_ context.Context, id primitive.ObjectID, u domain.CardUpdate) error {
	return r.mutate(id, func(c *domain.Card) error {
		if u.Title != nil {
			c.Title = *u.Title
		}
		if u.Description != nil {
			c.Description = *u.Description
		}
		if u.Position != nil {
			c.Position = *u.Position
		}
		if u.Completed != nil {
			c.Completed = *u.Completed
		}
		if u.DueDate != nil {
			d := *u.DueDate
			c.DueDate = &d
		}
		return nil
	})
}

func (r *cardRepo) Relocate(_ context.Context, id, listID, boardID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.List = listID
		c.Board = boardID
		return nil
	})
}

func (r *cardRepo) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.IsDeleted = true
		return nil
	})
}

func (r *cardRepo) softDeleteWhere(match func(c *domain.Card) bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, c := range r.s.cards {
		if !c.IsDeleted && match(&c) {
			c = cloneCard(c)
			c.IsDeleted = true
			c.UpdatedAt = now
			r.s.cards[id] = c
		}
	}
}

func (r *cardRepo) SoftDeleteByList(_ context.Context, listID primitive.ObjectID) error {
	r.softDeleteWhere(func(c *domain.Card) bool { return c.List == listID })
	return nil
}

func (r *cardRepo) SoftDeleteByBoard(_ context.Context, boardID primitive.ObjectID) error {
	r.softDeleteWhere(func(c *domain.Card) bool { return c.Board == boardID })
	return nil
}

func (r *cardRepo) AddMember(_ context.Context, id, userID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.Members = addToSet(c.Members, userID)
		return nil
	})
}

func (r *cardRepo) RemoveMember(_ context.Context, id, userID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.Members = pullAll(c.Members, userID)
		return nil
	})
}

func (r *cardRepo) PullMemberByBoard(_ context.Context, boardID, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, c := range r.s.cards {
		if c.Board == boardID && domain.ContainsID(c.Members, userID) {
			c = cloneCard(c)
			c.Members = pullAll(c.Members, userID)
			c.UpdatedAt = now
			r.s.cards[id] = c
		}
	}
	return nil
}

func (r *cardRepo) PushActivity(_ context.Context, id, activityID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.Activities = append(c.Activities, activityID)
		return nil
	})
}

func (r *cardRepo) AppendComment(_ context.Context, id primitive.ObjectID, comment domain.Comment) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.Comments = append(c.Comments, comment)
		return nil
	})
}

func (r *cardRepo) HideComment(_ context.Context, id, commentID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		cm, ok := c.Comment(commentID)
		if !ok || cm.IsDeleted {
			return domain.Conflict("comment is already hidden")
		}
		cm.IsDeleted = true
		return nil
	})
}

func (r *cardRepo) AppendNote(_ context.Context, id primitive.ObjectID, note domain.Note) error {
	return r.mutate(id, func(c *domain.Card) error {
		c.Notes = append(c.Notes, note)
		return nil
	})
}

func (r *cardRepo) HideNote(_ context.Context, id, noteID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		n, ok := c.Note(noteID)
		if !ok || n.IsDeleted {
			return domain.Conflict("note is already hidden")
		}
		n.IsDeleted = true
		return nil
	})
}

func (r *cardRepo) AppendChecklist(_ context.Context, id primitive.ObjectID, checklist domain.Checklist) error {
	return r.mutate(id, func(c *domain.Card) error {
		checklist.Items = append([]domain.ChecklistItem{}, checklist.Items...)
		c.Checklists = append(c.Checklists, checklist)
		return nil
	})
}

func liveChecklist(c *domain.Card, checklistID primitive.ObjectID) (*domain.Checklist, bool) {
	cl, ok := c.Checklist(checklistID)
	if !ok || cl.IsDeleted {
		return nil, false
	}
	return cl, true
}

func (r *cardRepo) RenameChecklist(_ context.Context, id, checklistID primitive.ObjectID, title string) error {
	return r.mutate(id, func(c *domain.Card) error {
		cl, ok := liveChecklist(c, checklistID)
		if !ok {
			return domain.NotFound("checklist not found")
		}
		cl.Title = title
		return nil
	})
}

func (r *cardRepo) DeleteChecklist(_ context.Context, id, checklistID primitive.ObjectID) error {
	return r.mutate(id, func(c *domain.Card) error {
		cl, ok := liveChecklist(c, checklistID)
		if !ok {
			return domain.Conflict("checklist is already deleted")
		}
		cl.IsDeleted = true
		return nil
	})
}

func (r *cardRepo) PushChecklistItem(_ context.Context, id, checklistID primitive.ObjectID, expectedVersion int64, item domain.ChecklistItem) (int64, error) {
	var version int64
	err := r.mutate(id, func(c *domain.Card) error {
		if c.Version != expectedVersion {
			return versionConflict(c.Version, expectedVersion)
		}
		cl, ok := liveChecklist(c, checklistID)
		if !ok {
			return domain.Conflict("checklist changed concurrently")
		}
		cl.Items = append(cl.Items, item)
		c.Version++
		version = c.Version
		return nil
	})
	return version, err
}

func (r *cardRepo) PatchChecklistItem(_ context.Context, id, checklistID, itemID primitive.ObjectID, expectedVersion int64, patch domain.ChecklistItemPatch) (int64, error) {
	var version int64
	err := r.mutate(id, func(c *domain.Card) error {
		if c.Version != expectedVersion {
			return versionConflict(c.Version, expectedVersion)
		}
		cl, ok := liveChecklist(c, checklistID)
		if !ok {
			return domain.Conflict("checklist changed concurrently")
		}
		item, ok := cl.Item(itemID)
		if !ok || item.IsDeleted {
			return domain.Conflict("checklist item changed concurrently")
		}
		if patch.Text != nil {
			item.Text = *patch.Text
		}
		if patch.Completed != nil {
			item.Completed = *patch.Completed
		}
		if patch.IsDeleted != nil {
			item.IsDeleted = *patch.IsDeleted
		}
		c.Version++
		version = c.Version
		return nil
	})
	return version, err
}

func versionConflict(current, expected int64) error {
	return domain.Conflict("card version mismatch: expected %d, current %d", expected, current).
		WithDetails(map[string]any{"currentVersion": current})
}
