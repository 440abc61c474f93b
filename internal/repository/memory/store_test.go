package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/repository/memory"
)

func newCard(t *testing.T, store *memory.Store) *domain.Card {
	t.Helper()
	card := &domain.Card{
		ID:        primitive.NewObjectID(),
		Title:     "card",
		List:      primitive.NewObjectID(),
		Board:     primitive.NewObjectID(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Cards().Create(context.Background(), card))
	return card
}

func TestCards_ChecklistItemCompareAndSwap(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	card := newCard(t, store)

	cl := domain.Checklist{ID: primitive.NewObjectID(), Title: "todo"}
	require.NoError(t, store.Cards().AppendChecklist(ctx, card.ID, cl))

	item := domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "write tests"}
	version, err := store.Cards().PushChecklistItem(ctx, card.ID, cl.ID, 0, item)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// stale version is rejected and leaves the card untouched
	_, err = store.Cards().PushChecklistItem(ctx, card.ID, cl.ID, 0, domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "dup"})
	require.ErrorIs(t, err, domain.ErrConflict)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, map[string]any{"currentVersion": int64(1)}, de.Details)

	got, err := store.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	require.Len(t, got.Checklists, 1)
	assert.Len(t, got.Checklists[0].Items, 1)

	completed := true
	version, err = store.Cards().PatchChecklistItem(ctx, card.ID, cl.ID, item.ID, 1, domain.ChecklistItemPatch{Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	got, err = store.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Checklists[0].Items[0].Completed)
	assert.Equal(t, "write tests", got.Checklists[0].Items[0].Text)
}

func TestCards_ConcurrentPushOnlyOneWins(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	card := newCard(t, store)
	cl := domain.Checklist{ID: primitive.NewObjectID(), Title: "todo"}
	require.NoError(t, store.Cards().AppendChecklist(ctx, card.ID, cl))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Cards().PushChecklistItem(ctx, card.ID, cl.ID, 0, domain.ChecklistItem{ID: primitive.NewObjectID(), Text: "x"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, domain.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	got, err := store.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestCards_PatchDeletedChecklistConflicts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	card := newCard(t, store)
	cl := domain.Checklist{ID: primitive.NewObjectID(), Title: "todo"}
	require.NoError(t, store.Cards().AppendChecklist(ctx, card.ID, cl))
	require.NoError(t, store.Cards().DeleteChecklist(ctx, card.ID, cl.ID))

	_, err := store.Cards().PushChecklistItem(ctx, card.ID, cl.ID, 0, domain.ChecklistItem{ID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = store.Cards().DeleteChecklist(ctx, card.ID, cl.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = store.Cards().RenameChecklist(ctx, card.ID, cl.ID, "renamed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCards_HideCommentTwiceConflicts(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	card := newCard(t, store)
	comment := domain.Comment{ID: primitive.NewObjectID(), Author: primitive.NewObjectID(), Text: "hi"}
	require.NoError(t, store.Cards().AppendComment(ctx, card.ID, comment))

	require.NoError(t, store.Cards().HideComment(ctx, card.ID, comment.ID))
	assert.ErrorIs(t, store.Cards().HideComment(ctx, card.ID, comment.ID), domain.ErrConflict)
}

func TestCards_GetReturnsCopies(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	card := newCard(t, store)
	require.NoError(t, store.Cards().AddMember(ctx, card.ID, primitive.NewObjectID()))

	got, err := store.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	got.Members[0] = primitive.NilObjectID
	got.Title = "mutated"

	again, err := store.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, again.Members[0])
	assert.Equal(t, "card", again.Title)
}

func TestLists_InsertCardOrderClampsIndex(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	list := &domain.List{ID: primitive.NewObjectID(), Board: primitive.NewObjectID(), Title: "todo"}
	require.NoError(t, store.Lists().Create(ctx, list))

	a, b, c, d := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, store.Lists().AppendCardOrder(ctx, list.ID, a))
	require.NoError(t, store.Lists().AppendCardOrder(ctx, list.ID, b))
	require.NoError(t, store.Lists().InsertCardOrder(ctx, list.ID, c, 1))
	require.NoError(t, store.Lists().InsertCardOrder(ctx, list.ID, d, 99))

	got, err := store.Lists().GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, c, b, d}, got.CardOrderIDs)

	require.NoError(t, store.Lists().PullCardOrder(ctx, list.ID, c, d))
	got, err = store.Lists().GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, got.CardOrderIDs)
}

func TestLists_SoftDeleteByBoardClearsOrder(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	boardID := primitive.NewObjectID()
	list := &domain.List{ID: primitive.NewObjectID(), Board: boardID, Title: "todo"}
	other := &domain.List{ID: primitive.NewObjectID(), Board: primitive.NewObjectID(), Title: "other"}
	require.NoError(t, store.Lists().Create(ctx, list))
	require.NoError(t, store.Lists().Create(ctx, other))
	require.NoError(t, store.Lists().AppendCardOrder(ctx, list.ID, primitive.NewObjectID()))

	require.NoError(t, store.Lists().SoftDeleteByBoard(ctx, boardID))

	got, err := store.Lists().GetByID(ctx, list.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Empty(t, got.CardOrderIDs)

	untouched, err := store.Lists().GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsDeleted)
}

func TestBoards_Membership(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	owner, guest := primitive.NewObjectID(), primitive.NewObjectID()
	board := &domain.Board{
		ID:      primitive.NewObjectID(),
		Title:   "b",
		Owner:   owner,
		Members: []domain.BoardMember{{User: owner, IsActive: true}},
	}
	require.NoError(t, store.Boards().Create(ctx, board))

	require.NoError(t, store.Boards().AddMember(ctx, board.ID, domain.BoardMember{User: guest, IsActive: true}))
	assert.ErrorIs(t, store.Boards().AddMember(ctx, board.ID, domain.BoardMember{User: guest, IsActive: true}), domain.ErrConflict)

	boards, err := store.Boards().ListByMember(ctx, guest)
	require.NoError(t, err)
	assert.Len(t, boards, 1)

	require.NoError(t, store.Boards().SetMemberActive(ctx, board.ID, guest, false))
	boards, err = store.Boards().ListByMember(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, boards)

	err = store.Boards().SetMemberActive(ctx, board.ID, primitive.NewObjectID(), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUsers_EmailIsUnique(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &domain.User{ID: primitive.NewObjectID(), Email: "ada@example.com"}))

	err := store.Users().Create(ctx, &domain.User{ID: primitive.NewObjectID(), Email: "ADA@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	u, err := store.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = store.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	recipient := primitive.NewObjectID()

	base := time.Now().UTC()
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		n := &domain.Notification{
			ID:        primitive.NewObjectID(),
			Recipient: recipient,
			Message:   "m",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.Notifications().Create(ctx, n))
		ids = append(ids, n.ID)
	}
	require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{ID: primitive.NewObjectID(), Recipient: primitive.NewObjectID()}))

	require.NoError(t, store.Notifications().Hide(ctx, ids[0]))

	visible, err := store.Notifications().ListByRecipient(ctx, recipient, false, 10)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, ids[2], visible[0].ID, "newest first")

	all, err := store.Notifications().ListByRecipient(ctx, recipient, true, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Notifications().MarkRead(ctx, ids[1]))
	updated, err := store.Notifications().MarkAllRead(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}
