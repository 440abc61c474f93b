package realtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/realtime"
)

func receive(t *testing.T, c *realtime.Client) realtime.Event {
	t.Helper()
	select {
	case ev := <-c.Events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return realtime.Event{}
	}
}

func TestHub_DeliversOnlyToSubscribers(t *testing.T) {
	hub := realtime.NewHub(4)
	board := realtime.BoardTopic(primitive.NewObjectID())

	a, err := hub.Connect("alice")
	require.NoError(t, err)
	b, err := hub.Connect("bob")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	require.True(t, hub.Subscribe(a.ID, board))
	require.True(t, hub.Subscribe(a.ID, board), "subscribing twice is harmless")
	assert.Equal(t, 1, hub.Subscribers(board))

	require.NoError(t, hub.Publish(context.Background(), board, realtime.Event{Type: realtime.EventCardCreated, EntityID: "c1"}))

	ev := receive(t, a)
	assert.Equal(t, realtime.EventCardCreated, ev.Type)
	assert.Equal(t, board, ev.Topic)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Empty(t, b.Events)

	hub.Unsubscribe(a.ID, board)
	assert.Equal(t, 0, hub.Subscribers(board))
	hub.Deliver(board, realtime.Event{Type: realtime.EventCardUpdated})
	assert.Empty(t, a.Events)

	assert.False(t, hub.Subscribe("missing", board))
}

func TestHub_SlowClientDropsEvents(t *testing.T) {
	hub := realtime.NewHub(2)
	c, err := hub.Connect("alice")
	require.NoError(t, err)
	hub.Subscribe(c.ID, "board:x")

	for i := 0; i < 5; i++ {
		hub.Deliver("board:x", realtime.Event{Type: realtime.EventCardUpdated})
	}
	assert.Len(t, c.Events, 2)
}

func TestHub_DisconnectAndShutdown(t *testing.T) {
	hub := realtime.NewHub(0)
	a, err := hub.Connect("alice")
	require.NoError(t, err)
	b, err := hub.Connect("bob")
	require.NoError(t, err)
	hub.Subscribe(a.ID, "board:x")
	hub.Subscribe(b.ID, "board:x")

	hub.Disconnect(a.ID)
	assert.Equal(t, 1, hub.Subscribers("board:x"))
	select {
	case <-a.Done:
	default:
		t.Fatal("disconnected client should be done")
	}
	hub.Disconnect(a.ID)

	hub.Shutdown()
	assert.Equal(t, 0, hub.Subscribers("board:x"))
	select {
	case <-b.Done:
	default:
		t.Fatal("shutdown should disconnect every client")
	}

	_, err = hub.Connect("carol")
	assert.Error(t, err)
}

func TestTopics(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, "user:"+id.Hex(), realtime.UserTopic(id))
	assert.Equal(t, "board:"+id.Hex(), realtime.BoardTopic(id))
	assert.Equal(t, "workspace:"+id.Hex(), realtime.WorkspaceTopic(id))
	assert.Equal(t, realtime.BoardTopic(id), realtime.Room{Kind: realtime.RoomBoard, ID: id.Hex()}.Topic())
	assert.Equal(t, realtime.WorkspaceTopic(id), realtime.Room{Kind: realtime.RoomWorkspace, ID: id.Hex()}.Topic())
}

func TestHub_RevokeUserAndTopic(t *testing.T) {
	hub := realtime.NewHub(4)
	board := realtime.BoardTopic(primitive.NewObjectID())

	alice, err := hub.Connect("alice")
	require.NoError(t, err)
	bobPhone, err := hub.Connect("bob")
	require.NoError(t, err)
	bobLaptop, err := hub.Connect("bob")
	require.NoError(t, err)
	for _, c := range []*realtime.Client{alice, bobPhone, bobLaptop} {
		require.True(t, hub.Subscribe(c.ID, board))
		require.True(t, hub.Subscribe(c.ID, "user:"+c.UserID))
	}

	require.NoError(t, hub.RevokeUser(context.Background(), board, "bob"))
	assert.Equal(t, 1, hub.Subscribers(board))
	assert.Equal(t, 2, hub.Subscribers("user:bob"), "other topics are untouched")

	for _, c := range []*realtime.Client{bobPhone, bobLaptop} {
		notice := receive(t, c)
		assert.Equal(t, realtime.EventRoomLeft, notice.Type)
		assert.Equal(t, board, notice.Topic)
	}

	hub.Deliver(board, realtime.Event{Type: realtime.EventCardCreated})
	assert.Equal(t, realtime.EventCardCreated, receive(t, alice).Type)
	assert.Empty(t, bobPhone.Events)
	assert.Empty(t, bobLaptop.Events)

	assert.Equal(t, 0, hub.UnsubscribeUser("bob", board))

	require.NoError(t, hub.RevokeTopic(context.Background(), board))
	assert.Equal(t, 0, hub.Subscribers(board))
	assert.Equal(t, realtime.EventRoomLeft, receive(t, alice).Type)

	// a revoked client can still be disconnected cleanly
	hub.Disconnect(alice.ID)
	assert.Equal(t, 0, hub.Subscribers("user:alice"))
	assert.Equal(t, 2, hub.Subscribers("user:bob"))
}
