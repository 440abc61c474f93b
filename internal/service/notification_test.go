package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

func TestNotificationService_InboxOperations(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)
	f.list(t, owner, b, "todo")
	f.list(t, owner, b, "done")

	inbox, err := f.notifications.List(f.ctx, guest, false, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 3, "invitation plus two list creations")
	for _, n := range inbox {
		assert.Equal(t, guest.ID, n.Recipient)
		assert.Equal(t, owner.ID, n.Actor)
		assert.False(t, n.IsRead)
	}

	ownerInbox, err := f.notifications.List(f.ctx, owner, false, 0)
	require.NoError(t, err)
	assert.Empty(t, ownerInbox, "nobody is notified of their own changes")

	_, err = f.notifications.MarkRead(f.ctx, owner, inbox[0].ID)
	requireCode(t, err, domain.CodeForbidden)
	requireCode(t, f.notifications.Hide(f.ctx, owner, inbox[0].ID), domain.CodeForbidden)

	read, err := f.notifications.MarkRead(f.ctx, guest, inbox[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	require.NoError(t, f.notifications.Hide(f.ctx, guest, inbox[1].ID))

	visible, err := f.notifications.List(f.ctx, guest, false, 0)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	all, err := f.notifications.List(f.ctx, guest, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := f.notifications.List(f.ctx, guest, true, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	updated, err := f.notifications.MarkAllRead(f.ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}

func TestRecorder_PublishesNotificationToRecipientTopic(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")
	b := f.board(t, owner)
	f.invite(t, owner, b, guest)

	f.pub.reset()
	l := f.list(t, owner, b, "todo")

	events := f.pub.events(realtime.UserTopic(guest.ID))
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventNotificationCreated, events[0].Type)
	assert.Equal(t, b.ID.Hex(), events[0].BoardID)
	n, ok := events[0].Data.(*domain.Notification)
	require.True(t, ok)
	assert.Equal(t, l.ID, n.Target)
	assert.Equal(t, domain.TargetList, n.TargetModel)
	assert.False(t, events[0].Timestamp.IsZero())

	assert.Empty(t, f.pub.events(realtime.UserTopic(owner.ID)))
}

func TestRecorder_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bus down"))
	pub.On("RevokeUser", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bus down"))
	pub.On("RevokeTopic", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	f := newFixtureWith(t, pub)
	owner := f.user(t, "Ada")
	guest := f.user(t, "Grace")

	b := f.board(t, owner)
	f.invite(t, owner, b, guest)
	l := f.list(t, owner, b, "todo")

	stored, err := f.store.Lists().GetByID(f.ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Activities, 1)

	inbox, err := f.notifications.List(f.ctx, guest, false, 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
	pub.AssertCalled(t, "Publish", mock.Anything, realtime.BoardTopic(b.ID), mock.Anything)
}
