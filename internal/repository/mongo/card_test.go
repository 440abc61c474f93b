package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/config"
	"github.com/Rrens/taskboard/internal/domain"
)

// newTestDB connects to MONGO_URI using a throwaway database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	db, err := NewDB(context.Background(), config.DatabaseConfig{
		URI:            uri,
		Name:           "taskboard_test_" + primitive.NewObjectID().Hex(),
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Database.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func newChecklistCard(t *testing.T, cards domain.CardRepository) (*domain.Card, primitive.ObjectID) {
	t.Helper()
	now := time.Now().UTC()
	checklistID := primitive.NewObjectID()
	card := &domain.Card{
		ID:         primitive.NewObjectID(),
		Title:      "ship",
		List:       primitive.NewObjectID(),
		Board:      primitive.NewObjectID(),
		Members:    []primitive.ObjectID{},
		Checklists: []domain.Checklist{{ID: checklistID, Title: "release", Items: []domain.ChecklistItem{}}},
		Comments:   []domain.Comment{},
		Notes:      []domain.Note{},
		Activities: []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, cards.Create(context.Background(), card))
	return card, checklistID
}

func requireConflict(t *testing.T, err error) *domain.Error {
	t.Helper()
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, domain.CodeConflict, de.Code, "unexpected error: %v", err)
	return de
}

func TestCardRepository_PushChecklistItemStaleVersion(t *testing.T) {
	db := newTestDB(t)
	cards := db.Cards()
	ctx := context.Background()
	card, checklistID := newChecklistCard(t, cards)

	version, err := cards.PushChecklistItem(ctx, card.ID, checklistID, 0, domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "tag"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	_, err = cards.PushChecklistItem(ctx, card.ID, checklistID, 0, domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "push"})
	de := requireConflict(t, err)
	assert.Equal(t, map[string]any{"currentVersion": int64(1)}, de.Details)

	stored, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	require.Len(t, stored.Checklists, 1)
	assert.Len(t, stored.Checklists[0].Items, 1)

	_, err = cards.PushChecklistItem(ctx, primitive.NewObjectID(), checklistID, 0, domain.ChecklistItem{ID: primitive.NewObjectID()})
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestCardRepository_PatchDeletedChecklistItem(t *testing.T) {
	db := newTestDB(t)
	cards := db.Cards()
	ctx := context.Background()
	card, checklistID := newChecklistCard(t, cards)
	itemID := primitive.NewObjectID()

	_, err := cards.PushChecklistItem(ctx, card.ID, checklistID, 0, domain.ChecklistItem{ID: itemID, Text: "tag"})
	require.NoError(t, err)

	done := true
	version, err := cards.PatchChecklistItem(ctx, card.ID, checklistID, itemID, 1, domain.ChecklistItemPatch{Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	deleted := true
	version, err = cards.PatchChecklistItem(ctx, card.ID, checklistID, itemID, 2, domain.ChecklistItemPatch{IsDeleted: &deleted})
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	// the version matches but the item is gone
	text := "retag"
	_, err = cards.PatchChecklistItem(ctx, card.ID, checklistID, itemID, 3, domain.ChecklistItemPatch{Text: &text})
	de := requireConflict(t, err)
	assert.Nil(t, de.Details)
	assert.Equal(t, "checklist item changed concurrently", de.Message)

	_, err = cards.PatchChecklistItem(ctx, card.ID, checklistID, itemID, 1, domain.ChecklistItemPatch{Text: &text})
	de = requireConflict(t, err)
	assert.Equal(t, map[string]any{"currentVersion": int64(3)}, de.Details)

	stored, err := cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	item, ok := stored.Checklists[0].Item(itemID)
	require.True(t, ok)
	assert.Equal(t, "tag", item.Text)
	assert.True(t, item.Completed)
	assert.True(t, item.IsDeleted)
}

func TestCardRepository_DeletedChecklistRejectsWrites(t *testing.T) {
	db := newTestDB(t)
	cards := db.Cards()
	ctx := context.Background()
	card, checklistID := newChecklistCard(t, cards)

	require.NoError(t, cards.DeleteChecklist(ctx, card.ID, checklistID))
	requireConflict(t, cards.DeleteChecklist(ctx, card.ID, checklistID))
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(cards.RenameChecklist(ctx, card.ID, checklistID, "renamed")))

	_, err := cards.PushChecklistItem(ctx, card.ID, checklistID, 0, domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "late"})
	de := requireConflict(t, err)
	assert.Nil(t, de.Details)
	assert.Equal(t, "checklist changed concurrently", de.Message)
}

func TestCardRepository_PullMemberByBoard(t *testing.T) {
	db := newTestDB(t)
	cards := db.Cards()
	ctx := context.Background()
	gone := primitive.NewObjectID()
	stays := primitive.NewObjectID()

	onBoard, _ := newChecklistCard(t, cards)
	elsewhere, _ := newChecklistCard(t, cards)
	for _, c := range []*domain.Card{onBoard, elsewhere} {
		require.NoError(t, cards.AddMember(ctx, c.ID, gone))
	}
	require.NoError(t, cards.AddMember(ctx, onBoard.ID, stays))

	require.NoError(t, cards.PullMemberByBoard(ctx, onBoard.Board, gone))

	stored, err := cards.GetByID(ctx, onBoard.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{stays}, stored.Members)

	other, err := cards.GetByID(ctx, elsewhere.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{gone}, other.Members, "cards on other boards keep their members")
}
