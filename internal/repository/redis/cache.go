package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

const (
	userCachePrefix = "user:"
	defaultUserTTL  = 10 * time.Minute
)

// cachedUser is the cached projection of a user; the password hash never leaves the store
type cachedUser struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	CreatedAt time.Time          `json:"createdAt"`
}

// UserCache caches user profiles looked up while resolving actors and invitees
type UserCache struct {
	client *Client
	ttl    time.Duration
}

// NewUserCache creates a new user cache
func NewUserCache(client *Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserTTL
	}
	return &UserCache{client: client, ttl: ttl}
}

func userKey(id primitive.ObjectID) string {
	return userCachePrefix + id.Hex()
}

// Get returns the cached profile, or nil on a cache miss
func (c *UserCache) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	data, err := c.client.rdb.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &domain.User{ID: cu.ID, Name: cu.Name, Email: cu.Email, CreatedAt: cu.CreatedAt}, nil
}

// Set caches a user profile
func (c *UserCache) Set(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(cachedUser{ID: user.ID, Name: user.Name, Email: user.Email, CreatedAt: user.CreatedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return c.client.rdb.Set(ctx, userKey(user.ID), data, c.ttl).Err()
}

// Invalidate removes a cached profile
func (c *UserCache) Invalidate(ctx context.Context, id primitive.ObjectID) error {
	return c.client.rdb.Del(ctx, userKey(id)).Err()
}
