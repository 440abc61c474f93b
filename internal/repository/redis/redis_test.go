package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClientWithRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRateLimiter_Allow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 2, 1)
	fixed := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i, wantRemaining := range []int{2, 1, 0} {
		allowed, remaining, reset, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
		assert.Equal(t, wantRemaining, remaining)
		assert.Equal(t, time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC), reset)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	// other keys have their own window
	allowed, _, _, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_NewWindowAndReset(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 1, 0)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, _, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "k"))
	allowed, _, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	now = now.Add(time.Minute)
	allowed, _, _, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := NewClientWithRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer client.Close()
	limiter := NewRateLimiter(client, 1, 0)
	mr.Close()

	_, _, _, err = limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestUserCache_RoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewUserCache(client, time.Minute)
	ctx := context.Background()

	user := &domain.User{
		ID:           primitive.NewObjectID(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "secret-hash",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got, err := cache.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "miss returns nil")

	require.NoError(t, cache.Set(ctx, user))
	assert.Equal(t, time.Minute, mr.TTL(userKey(user.ID)))

	got, err = cache.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Name, got.Name)
	assert.Equal(t, user.Email, got.Email)
	assert.Empty(t, got.PasswordHash)

	require.NoError(t, cache.Invalidate(ctx, user.ID))
	got, err = cache.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserCache_Expiry(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewUserCache(client, 0)
	ctx := context.Background()

	user := &domain.User{ID: primitive.NewObjectID(), Name: "Grace"}
	require.NoError(t, cache.Set(ctx, user))
	assert.Equal(t, defaultUserTTL, mr.TTL(userKey(user.ID)))

	mr.FastForward(defaultUserTTL + time.Second)
	got, err := cache.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserCache_CorruptEntry(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewUserCache(client, time.Minute)
	id := primitive.NewObjectID()
	require.NoError(t, mr.Set(userKey(id), "{not json"))

	_, err := cache.Get(context.Background(), id)
	assert.Error(t, err)
}

type delivery struct {
	topic string
	event realtime.Event
}

// channelSink forwards delivered events and ignores revocations
type channelSink chan delivery

func (c channelSink) Deliver(topic string, event realtime.Event) { c <- delivery{topic, event} }
func (c channelSink) UnsubscribeUser(string, string) int        { return 0 }
func (c channelSink) CloseTopic(string) int                     { return 0 }

func TestEventBus_PublishReachesListener(t *testing.T) {
	client, _ := newTestClient(t)
	bus := NewEventBus(client, "taskboard:test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := bus.Listen(ctx)
	require.NoError(t, err)
	defer listener.Close()

	got := make(channelSink, 1)
	go listener.Run(ctx, got)

	boardID := primitive.NewObjectID()
	topic := realtime.BoardTopic(boardID)
	require.NoError(t, bus.Publish(ctx, topic, realtime.Event{
		Type:     realtime.EventCardCreated,
		EntityID: "card-1",
		BoardID:  boardID.Hex(),
		Message:  "created",
	}))

	select {
	case d := <-got:
		assert.Equal(t, topic, d.topic)
		assert.Equal(t, topic, d.event.Topic)
		assert.Equal(t, realtime.EventCardCreated, d.event.Type)
		assert.Equal(t, "card-1", d.event.EntityID)
		assert.False(t, d.event.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventBus_RevocationsReachHub(t *testing.T) {
	client, _ := newTestClient(t)
	bus := NewEventBus(client, "taskboard:test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener, err := bus.Listen(ctx)
	require.NoError(t, err)
	defer listener.Close()

	hub := realtime.NewHub(4)
	defer hub.Shutdown()
	go listener.Run(ctx, hub)

	board := realtime.BoardTopic(primitive.NewObjectID())
	alice, err := hub.Connect("alice")
	require.NoError(t, err)
	bob, err := hub.Connect("bob")
	require.NoError(t, err)
	hub.Subscribe(alice.ID, board)
	hub.Subscribe(bob.ID, board)

	require.NoError(t, bus.RevokeUser(ctx, board, "bob"))
	assert.Eventually(t, func() bool { return hub.Subscribers(board) == 1 }, 2*time.Second, 10*time.Millisecond)

	notice := <-bob.Events
	assert.Equal(t, realtime.EventRoomLeft, notice.Type)
	assert.Equal(t, board, notice.Topic)

	// bob no longer receives room events
	require.NoError(t, bus.Publish(ctx, board, realtime.Event{Type: realtime.EventListCreated}))
	ev := <-alice.Events
	assert.Equal(t, realtime.EventListCreated, ev.Type)
	assert.Empty(t, bob.Events)

	require.NoError(t, bus.RevokeTopic(ctx, board))
	assert.Eventually(t, func() bool { return hub.Subscribers(board) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventBus_RunStopsOnCancel(t *testing.T) {
	client, _ := newTestClient(t)
	bus := NewEventBus(client, "taskboard:test")
	ctx, cancel := context.WithCancel(context.Background())

	listener, err := bus.Listen(ctx)
	require.NoError(t, err)
	defer listener.Close()

	done := make(chan struct{})
	go func() {
		listener.Run(ctx, make(channelSink))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
