package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

// UserCache caches user profiles. Get returns nil, nil on a miss.
type UserCache interface {
	Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
}

// UserDirectory looks up user profiles, going through the cache when one is configured
type UserDirectory struct {
	users domain.UserRepository
	cache UserCache
}

// NewUserDirectory creates a user directory. cache may be nil.
func NewUserDirectory(users domain.UserRepository, cache UserCache) *UserDirectory {
	return &UserDirectory{users: users, cache: cache}
}

// Get returns the profile of id
func (d *UserDirectory) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	if d.cache != nil {
		cached, err := d.cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("user_id", id.Hex()).Msg("user cache read failed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	user, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, user); err != nil {
			log.Warn().Err(err).Str("user_id", id.Hex()).Msg("user cache write failed")
		}
	}
	return user, nil
}

// Resolve finds a user by id or by email address
func (d *UserDirectory) Resolve(ctx context.Context, idOrEmail string) (*domain.User, error) {
	idOrEmail = strings.TrimSpace(idOrEmail)
	if id, err := primitive.ObjectIDFromHex(idOrEmail); err == nil {
		return d.Get(ctx, id)
	}
	if !strings.Contains(idOrEmail, "@") {
		return nil, domain.Invalid("user must be an id or an email address")
	}

	user, err := d.users.GetByEmail(ctx, strings.ToLower(idOrEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
