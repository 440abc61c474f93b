package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
	"github.com/Rrens/taskboard/internal/realtime"
	"github.com/Rrens/taskboard/internal/repository/memory"
	"github.com/Rrens/taskboard/internal/service"
)

// mockPublisher records every published event and revocation in call order
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event realtime.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func (m *mockPublisher) RevokeUser(ctx context.Context, topic, userID string) error {
	args := m.Called(ctx, topic, userID)
	return args.Error(0)
}

func (m *mockPublisher) RevokeTopic(ctx context.Context, topic string) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

func (m *mockPublisher) reset() {
	m.Calls = nil
}

func (m *mockPublisher) topics() []string {
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		if c.Method == "Publish" {
			out = append(out, c.Arguments.String(1))
		}
	}
	return out
}

func (m *mockPublisher) events(topic string) []realtime.Event {
	var out []realtime.Event
	for _, c := range m.Calls {
		if c.Method == "Publish" && c.Arguments.String(1) == topic {
			out = append(out, c.Arguments.Get(2).(realtime.Event))
		}
	}
	return out
}

type fixture struct {
	ctx           context.Context
	store         *memory.Store
	pub           *mockPublisher
	workspaces    *service.WorkspaceService
	boards        *service.BoardService
	lists         *service.ListService
	cards         *service.CardService
	content       *service.ContentService
	checklists    *service.ChecklistService
	notifications *service.NotificationService
	gate          *service.RoomGate
}

func newFixture(t *testing.T) *fixture {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("RevokeUser", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("RevokeTopic", mock.Anything, mock.Anything).Return(nil)
	return newFixtureWith(t, pub)
}

// newHubFixture routes every publish and revocation into a live hub
func newHubFixture(t *testing.T) (*fixture, *realtime.Hub) {
	hub := realtime.NewHub(16)
	t.Cleanup(hub.Shutdown)

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { hub.Deliver(args.String(1), args.Get(2).(realtime.Event)) }).
		Return(nil)
	pub.On("RevokeUser", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { hub.UnsubscribeUser(args.String(2), args.String(1)) }).
		Return(nil)
	pub.On("RevokeTopic", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { hub.CloseTopic(args.String(1)) }).
		Return(nil)
	return newFixtureWith(t, pub), hub
}

// received drains whatever the client has buffered so far
func received(c *realtime.Client) []realtime.Event {
	var out []realtime.Event
	for {
		select {
		case ev := <-c.Events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []realtime.Event) []realtime.EventType {
	out := make([]realtime.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func newFixtureWith(t *testing.T, pub *mockPublisher) *fixture {
	t.Helper()
	store := memory.New()
	recorder := service.NewRecorder(store, pub)
	directory := service.NewUserDirectory(store.Users(), nil)

	return &fixture{
		ctx:           context.Background(),
		store:         store,
		pub:           pub,
		workspaces:    service.NewWorkspaceService(store, recorder),
		boards:        service.NewBoardService(store, recorder, directory),
		lists:         service.NewListService(store, recorder),
		cards:         service.NewCardService(store, recorder, directory),
		content:       service.NewContentService(store, recorder),
		checklists:    service.NewChecklistService(store, recorder),
		notifications: service.NewNotificationService(store),
		gate:          service.NewRoomGate(store),
	}
}

func (f *fixture) user(t *testing.T, name string) domain.Actor {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return domain.Actor{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (f *fixture) board(t *testing.T, owner domain.Actor) *domain.Board {
	t.Helper()
	ws, err := f.workspaces.Create(f.ctx, owner, domain.WorkspaceCreate{Name: "team"})
	require.NoError(t, err)
	b, err := f.boards.Create(f.ctx, owner, domain.BoardCreate{Title: "roadmap", WorkspaceID: ws.ID.Hex()})
	require.NoError(t, err)
	return b
}

func (f *fixture) invite(t *testing.T, owner domain.Actor, board *domain.Board, user domain.Actor) {
	t.Helper()
	_, err := f.boards.InviteMember(f.ctx, owner, board.ID, domain.MemberInvite{User: user.Email})
	require.NoError(t, err)
}

func (f *fixture) list(t *testing.T, actor domain.Actor, board *domain.Board, title string) *domain.List {
	t.Helper()
	l, err := f.lists.Create(f.ctx, actor, domain.ListCreate{Title: title, BoardID: board.ID.Hex()})
	require.NoError(t, err)
	return l
}

func (f *fixture) card(t *testing.T, actor domain.Actor, list *domain.List, title string) *domain.Card {
	t.Helper()
	c, err := f.cards.Create(f.ctx, actor, domain.CardCreate{Title: title, ListID: list.ID.Hex()})
	require.NoError(t, err)
	return c
}

func (f *fixture) cardOrder(t *testing.T, listID primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	l, err := f.store.Lists().GetByID(f.ctx, listID)
	require.NoError(t, err)
	return l.CardOrderIDs
}

func requireCode(t *testing.T, err error, code domain.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domain.CodeOf(err), "unexpected error: %v", err)
}

func int64Ptr(v int64) *int64 { return &v }
