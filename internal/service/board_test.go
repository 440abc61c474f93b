package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

func TestBoardService_CreateMakesOwnerSoleMember(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")

	b := f.board(t, owner)

	assert.Equal(t, owner.ID, b.Owner)
	require.Len(t, b.Members, 1)
	assert.Equal(t, owner.ID, b.Members[0].User)
	assert.True(t, b.Members[0].IsActive)
	assert.Equal(t, domain.VisibilityPrivate, b.Visibility)
	assert.Empty(t, b.ListOrderIDs)
	assert.Len(t, b.Activities, 1)
}

func TestBoardService_CreateRequiresWorkspaceMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	stranger := f.user(t, "Eve")
	ws, err := f.workspaces.Create(f.ctx, owner, domain.WorkspaceCreate{Name: "team"})
	require.NoError(t, err)

	_, err = f.boards.Create(f.ctx, stranger, domain.BoardCreate{Title: "x", WorkspaceID: ws.ID.Hex()})
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.boards.Create(f.ctx, owner, domain.BoardCreate{Title: "   ", WorkspaceID: ws.ID.Hex()})
	requireCode(t, err, domain.CodeInvalid)
}

func TestBoardService_InviteRemoveReinvite(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)

	f.invite(t, owner, b, guest)

	_, err := f.boards.InviteMember(f.ctx, owner, b.ID, domain.MemberInvite{User: guest.ID.Hex()})
	requireCode(t, err, domain.CodeConflict)

	boards, err := f.boards.List(f.ctx, guest)
	require.NoError(t, err)
	assert.Len(t, boards, 1)

	ws, err := f.store.Workspaces().GetByID(f.ctx, b.Workspace)
	require.NoError(t, err)
	assert.Contains(t, ws.Members, guest.ID)

	updated, err := f.boards.RemoveMember(f.ctx, owner, b.ID, guest.ID)
	require.NoError(t, err)
	m, ok := updated.Member(guest.ID)
	require.True(t, ok, "past members are kept")
	assert.False(t, m.IsActive)

	boards, err = f.boards.List(f.ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, boards)

	_, err = f.boards.RemoveMember(f.ctx, owner, b.ID, guest.ID)
	requireCode(t, err, domain.CodeNotFound)

	f.invite(t, owner, b, guest)
	reloaded, err := f.store.Boards().GetByID(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Members, 2)
	assert.Equal(t, []primitive.ObjectID{owner.ID, guest.ID}, reloaded.ActiveMemberIDs())
}

func TestBoardService_RemoveMemberRevokesRoomAccess(t *testing.T) {
	f, hub := newHubFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)

	boardTopic := realtime.BoardTopic(b.ID)
	workspaceTopic := realtime.WorkspaceTopic(b.Workspace)
	ownerConn, err := hub.Connect(owner.ID.Hex())
	require.NoError(t, err)
	guestConn, err := hub.Connect(guest.ID.Hex())
	require.NoError(t, err)
	require.True(t, hub.Subscribe(ownerConn.ID, boardTopic))
	require.True(t, hub.Subscribe(guestConn.ID, boardTopic))
	require.True(t, hub.Subscribe(guestConn.ID, workspaceTopic))

	_, err = f.boards.RemoveMember(f.ctx, owner, b.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Subscribers(boardTopic))
	assert.Zero(t, hub.Subscribers(workspaceTopic))

	f.list(t, owner, b, "after removal")

	// the guest only hears that both rooms were left
	assert.Equal(t,
		[]realtime.EventType{realtime.EventRoomLeft, realtime.EventRoomLeft},
		eventTypes(received(guestConn)))
	assert.Equal(t,
		[]realtime.EventType{realtime.EventBoardMemberRemoved, realtime.EventListCreated},
		eventTypes(received(ownerConn)))
	f.pub.AssertCalled(t, "RevokeUser", mock.Anything, boardTopic, guest.ID.Hex())
	f.pub.AssertCalled(t, "RevokeUser", mock.Anything, workspaceTopic, guest.ID.Hex())
}

func TestBoardService_DeleteClosesRoom(t *testing.T) {
	f, hub := newHubFixture(t)
	owner := f.user(t, "Ada")
	b := f.board(t, owner)
	topic := realtime.BoardTopic(b.ID)

	conn, err := hub.Connect(owner.ID.Hex())
	require.NoError(t, err)
	require.True(t, hub.Subscribe(conn.ID, topic))

	require.NoError(t, f.boards.Delete(f.ctx, owner, b.ID))
	assert.Zero(t, hub.Subscribers(topic))
	assert.Equal(t,
		[]realtime.EventType{realtime.EventBoardDeleted, realtime.EventRoomLeft},
		eventTypes(received(conn)))
}

func TestBoardService_MembershipGuards(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	other := f.user(t, "Linus")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)

	_, err := f.boards.RemoveMember(f.ctx, owner, b.ID, owner.ID)
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.boards.InviteMember(f.ctx, guest, b.ID, domain.MemberInvite{User: other.Email})
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.boards.RemoveMember(f.ctx, guest, b.ID, owner.ID)
	requireCode(t, err, domain.CodeForbidden)

	_, err = f.boards.InviteMember(f.ctx, owner, b.ID, domain.MemberInvite{User: "nobody@example.com"})
	requireCode(t, err, domain.CodeNotFound)

	_, err = f.boards.InviteMember(f.ctx, owner, b.ID, domain.MemberInvite{User: "not an id"})
	requireCode(t, err, domain.CodeInvalid)
}

func TestBoardService_DeleteCascadesToListsAndCards(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)
	todo := f.list(t, owner, b, "todo")
	done := f.list(t, owner, b, "done")
	c1 := f.card(t, owner, todo, "one")
	c2 := f.card(t, owner, done, "two")

	require.ErrorIs(t, f.boards.Delete(f.ctx, guest, b.ID), domain.ErrForbidden)

	f.pub.reset()
	require.NoError(t, f.boards.Delete(f.ctx, owner, b.ID))

	for _, id := range []primitive.ObjectID{todo.ID, done.ID} {
		l, err := f.store.Lists().GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.True(t, l.IsDeleted)
		assert.Empty(t, l.CardOrderIDs)
	}
	for _, id := range []primitive.ObjectID{c1.ID, c2.ID} {
		c, err := f.store.Cards().GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.True(t, c.IsDeleted)
	}

	deleted, err := f.boards.Get(f.ctx, owner, b.ID)
	require.NoError(t, err, "owner can still audit a deleted board")
	assert.True(t, deleted.IsDeleted)
	assert.Empty(t, deleted.ListOrderIDs)

	_, err = f.boards.Get(f.ctx, guest, b.ID)
	requireCode(t, err, domain.CodeNotFound)

	activities, err := f.boards.Activities(f.ctx, owner, b.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, activities)
	assert.Equal(t, domain.ActionBoardDeleted, activities[0].Action)

	assert.Equal(t, []string{
		realtime.UserTopic(guest.ID),
		realtime.BoardTopic(b.ID),
		realtime.WorkspaceTopic(b.Workspace),
	}, f.pub.topics())

	_, err = f.lists.Create(f.ctx, owner, domain.ListCreate{Title: "late", BoardID: b.ID.Hex()})
	requireCode(t, err, domain.CodeNotFound)
}

func TestBoardService_Visibility(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	stranger := f.user(t, "Eve")
	b := f.board(t, owner)

	_, err := f.boards.Get(f.ctx, stranger, b.ID)
	requireCode(t, err, domain.CodeForbidden)

	public := domain.VisibilityPublic
	_, err = f.boards.Update(f.ctx, owner, b.ID, domain.BoardUpdate{Visibility: &public})
	require.NoError(t, err)

	got, err := f.boards.Get(f.ctx, stranger, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	title := "renamed"
	_, err = f.boards.Update(f.ctx, stranger, b.ID, domain.BoardUpdate{Title: &title})
	requireCode(t, err, domain.CodeForbidden)
}

func TestRoomGate_Authorize(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	stranger := f.user(t, "Eve")
	b := f.board(t, owner)

	require.NoError(t, f.gate.Authorize(f.ctx, owner.ID.Hex(), realtime.Room{Kind: realtime.RoomBoard, ID: b.ID.Hex()}))
	require.NoError(t, f.gate.Authorize(f.ctx, owner.ID.Hex(), realtime.Room{Kind: realtime.RoomWorkspace, ID: b.Workspace.Hex()}))

	err := f.gate.Authorize(f.ctx, stranger.ID.Hex(), realtime.Room{Kind: realtime.RoomBoard, ID: b.ID.Hex()})
	requireCode(t, err, domain.CodeForbidden)

	err = f.gate.Authorize(f.ctx, stranger.ID.Hex(), realtime.Room{Kind: realtime.RoomWorkspace, ID: b.Workspace.Hex()})
	requireCode(t, err, domain.CodeForbidden)

	err = f.gate.Authorize(f.ctx, owner.ID.Hex(), realtime.Room{Kind: "planet", ID: b.ID.Hex()})
	requireCode(t, err, domain.CodeInvalid)

	err = f.gate.Authorize(f.ctx, owner.ID.Hex(), realtime.Room{Kind: realtime.RoomBoard, ID: primitive.NewObjectID().Hex()})
	requireCode(t, err, domain.CodeNotFound)
}
