package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/taskboard/internal/config"
	"github.com/Rrens/taskboard/internal/domain"
)

// Collection names
const (
	usersCollection         = "users"
	workspacesCollection    = "workspaces"
	boardsCollection        = "boards"
	listsCollection         = "lists"
	cardsCollection         = "cards"
	activitiesCollection    = "activities"
	notificationsCollection = "notifications"
)

// DB wraps the Mongo client and the application database
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewDB connects to MongoDB and verifies the connection
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &DB{Client: client, Database: client.Database(cfg.Name)}, nil
}

// Close disconnects the client
func (db *DB) Close(ctx context.Context) error {
	if db.Client != nil {
		return db.Client.Disconnect(ctx)
	}
	return nil
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Users() domain.UserRepository {
	return &UserRepository{coll: db.Database.Collection(usersCollection)}
}

func (db *DB) Workspaces() domain.WorkspaceRepository {
	return &WorkspaceRepository{coll: db.Database.Collection(workspacesCollection)}
}

func (db *DB) Boards() domain.BoardRepository {
	return &BoardRepository{coll: db.Database.Collection(boardsCollection)}
}

func (db *DB) Lists() domain.ListRepository {
	return &ListRepository{coll: db.Database.Collection(listsCollection)}
}

func (db *DB) Cards() domain.CardRepository {
	return &CardRepository{coll: db.Database.Collection(cardsCollection)}
}

func (db *DB) Activities() domain.ActivityRepository {
	return &ActivityRepository{coll: db.Database.Collection(activitiesCollection)}
}

func (db *DB) Notifications() domain.NotificationRepository {
	return &NotificationRepository{coll: db.Database.Collection(notificationsCollection)}
}

// translate maps driver errors onto domain errors
func translate(err error, what string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.NotFound("%s not found", what)
	case mongo.IsDuplicateKeyError(err):
		return domain.Conflict("%s already exists", what)
	default:
		return fmt.Errorf("%s store: %w", what, err)
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, what string) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, what)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, what string, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(err, what)
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err, what)
	}
	return out, nil
}

// updateByID applies update to the document with id and fails with NotFound when nothing matched
func updateByID(ctx context.Context, coll *mongo.Collection, id any, update bson.M, what string) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, what)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("%s not found", what)
	}
	return nil
}

// updateGuarded applies update only when filter matches. A missing document yields
// NotFound and a document that exists but fails the guard yields conflict.
func updateGuarded(ctx context.Context, coll *mongo.Collection, id any, filter, update bson.M, what string, conflict error) error {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err, what)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, what)
	}
	if n == 0 {
		return domain.NotFound("%s not found", what)
	}
	return conflict
}

var (
	byCreation = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	newest     = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
)
