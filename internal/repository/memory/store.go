// Package memory is an in-process document store implementing the domain repositories.
// Every repository method runs under one lock, matching the single-document atomicity
// of the Mongo store. It backs the "memory" database driver and the service tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

// Store holds every collection in memory
type Store struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]domain.User
	workspaces    map[primitive.ObjectID]domain.Workspace
	boards        map[primitive.ObjectID]domain.Board
	lists         map[primitive.ObjectID]domain.List
	cards         map[primitive.ObjectID]domain.Card
	activities    map[primitive.ObjectID]domain.Activity
	notifications map[primitive.ObjectID]domain.Notification
	now           func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:         make(map[primitive.ObjectID]domain.User),
		workspaces:    make(map[primitive.ObjectID]domain.Workspace),
		boards:        make(map[primitive.ObjectID]domain.Board),
		lists:         make(map[primitive.ObjectID]domain.List),
		cards:         make(map[primitive.ObjectID]domain.Card),
		activities:    make(map[primitive.ObjectID]domain.Activity),
		notifications: make(map[primitive.ObjectID]domain.Notification),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Users() domain.UserRepository                 { return &userRepo{s} }
func (s *Store) Workspaces() domain.WorkspaceRepository       { return &workspaceRepo{s} }
func (s *Store) Boards() domain.BoardRepository               { return &boardRepo{s} }
func (s *Store) Lists() domain.ListRepository                 { return &listRepo{s} }
func (s *Store) Cards() domain.CardRepository                 { return &cardRepo{s} }
func (s *Store) Activities() domain.ActivityRepository        { return &activityRepo{s} }
func (s *Store) Notifications() domain.NotificationRepository { return &notificationRepo{s} }

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if domain.ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func pullAll(ids []primitive.ObjectID, remove ...primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !domain.ContainsID(remove, id) {
			out = append(out, id)
		}
	}
	return out
}

// sortByCreation orders documents by creation time, then id
func sortByCreation[T any](items []T, created func(T) time.Time, id func(T) primitive.ObjectID) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		a, b := id(items[i]), id(items[j])
		return bytes.Compare(a[:], b[:]) < 0
	})
}
