package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

func TestWorkspaceService_Visibility(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	stranger := f.user(t, "stranger")

	private, err := f.workspaces.Create(f.ctx, owner, domain.WorkspaceCreate{Name: "private"})
	require.NoError(t, err)
	public, err := f.workspaces.Create(f.ctx, owner, domain.WorkspaceCreate{Name: "public", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, private.Owner)
	assert.True(t, private.HasMember(owner.ID))

	_, err = f.workspaces.Get(f.ctx, stranger, private.ID)
	requireCode(t, err, domain.CodeForbidden)
	got, err := f.workspaces.Get(f.ctx, stranger, public.ID)
	require.NoError(t, err)
	assert.Equal(t, "public", got.Name)

	mine, err := f.workspaces.List(f.ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	theirs, err := f.workspaces.List(f.ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = f.workspaces.ListBoards(f.ctx, stranger, public.ID)
	requireCode(t, err, domain.CodeForbidden)
}

func TestWorkspaceService_UpdateIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	board := f.board(t, owner)
	f.invite(t, owner, board, guest)

	name := "renamed"
	_, err := f.workspaces.Update(f.ctx, guest, board.Workspace, domain.WorkspaceUpdate{Name: &name})
	requireCode(t, err, domain.CodeForbidden)

	f.pub.reset()
	updated, err := f.workspaces.Update(f.ctx, owner, board.Workspace, domain.WorkspaceUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	// the invited guest was mirrored into the workspace and is notified
	assert.Equal(t, []string{realtime.UserTopic(guest.ID), realtime.WorkspaceTopic(board.Workspace)}, f.pub.topics())
}

func TestWorkspaceService_ListBoardsFiltersByMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	shared := f.board(t, owner)
	f.invite(t, owner, shared, guest)

	_, err := f.boards.Create(f.ctx, owner, domain.BoardCreate{Title: "secret", WorkspaceID: shared.Workspace.Hex()})
	require.NoError(t, err)

	ownerBoards, err := f.workspaces.ListBoards(f.ctx, owner, shared.Workspace)
	require.NoError(t, err)
	assert.Len(t, ownerBoards, 2)

	guestBoards, err := f.workspaces.ListBoards(f.ctx, guest, shared.Workspace)
	require.NoError(t, err)
	require.Len(t, guestBoards, 1)
	assert.Equal(t, shared.ID, guestBoards[0].ID)
}

func TestWorkspaceService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	guest := f.user(t, "guest")
	board := f.board(t, owner)
	f.invite(t, owner, board, guest)
	list := f.list(t, owner, board, "todo")
	card := f.card(t, owner, list, "task")

	err := f.workspaces.Delete(f.ctx, guest, board.Workspace)
	requireCode(t, err, domain.CodeForbidden)

	f.pub.reset()
	require.NoError(t, f.workspaces.Delete(f.ctx, owner, board.Workspace))

	storedBoard, err := f.store.Boards().GetByID(f.ctx, board.ID)
	require.NoError(t, err)
	assert.True(t, storedBoard.IsDeleted)
	assert.Empty(t, storedBoard.ListOrderIDs)

	storedList, err := f.store.Lists().GetByID(f.ctx, list.ID)
	require.NoError(t, err)
	assert.True(t, storedList.IsDeleted)
	assert.Empty(t, storedList.CardOrderIDs)

	storedCard, err := f.store.Cards().GetByID(f.ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, storedCard.IsDeleted)

	_, err = f.workspaces.Get(f.ctx, owner, board.Workspace)
	requireCode(t, err, domain.CodeNotFound)
	err = f.workspaces.Delete(f.ctx, owner, board.Workspace)
	requireCode(t, err, domain.CodeNotFound)

	events := f.pub.events(realtime.WorkspaceTopic(board.Workspace))
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventWorkspaceDeleted, events[0].Type)

	remaining, err := f.workspaces.List(f.ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestWorkspaceService_DeleteClosesRooms(t *testing.T) {
	f, hub := newHubFixture(t)
	owner := f.user(t, "Ada")
	b := f.board(t, owner)
	boardTopic := realtime.BoardTopic(b.ID)
	workspaceTopic := realtime.WorkspaceTopic(b.Workspace)

	conn, err := hub.Connect(owner.ID.Hex())
	require.NoError(t, err)
	require.True(t, hub.Subscribe(conn.ID, boardTopic))
	require.True(t, hub.Subscribe(conn.ID, workspaceTopic))

	require.NoError(t, f.workspaces.Delete(f.ctx, owner, b.Workspace))
	assert.Zero(t, hub.Subscribers(boardTopic))
	assert.Zero(t, hub.Subscribers(workspaceTopic))

	assert.Equal(t,
		[]realtime.EventType{realtime.EventWorkspaceDeleted, realtime.EventRoomLeft, realtime.EventRoomLeft},
		eventTypes(received(conn)))
}
