package mongo

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/taskboard/internal/domain"
)

// UserRepository handles user account storage
type UserRepository struct {
	coll *mongo.Collection
}

// Create inserts a user. Emails are unique.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("email already registered")
		}
		return translate(err, "user")
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return findOne[domain.User](ctx, r.coll, bson.M{"_id": id}, "user")
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.coll, bson.M{"email": strings.ToLower(email)}, "user")
}

// WorkspaceRepository handles workspace storage
type WorkspaceRepository struct {
	coll *mongo.Collection
}

func (r *WorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) error {
	if _, err := r.coll.InsertOne(ctx, workspace); err != nil {
		return translate(err, "workspace")
	}
	return nil
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workspace, error) {
	return findOne[domain.Workspace](ctx, r.coll, bson.M{"_id": id}, "workspace")
}

// ListByMember returns live workspaces owned by or shared with userID
func (r *WorkspaceRepository) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]domain.Workspace, error) {
	filter := bson.M{
		"isDeleted": false,
		"$or":       bson.A{bson.M{"owner": userID}, bson.M{"members": userID}},
	}
	return findAll[domain.Workspace](ctx, r.coll, filter, "workspace", options.Find().SetSort(byCreation))
}

func (r *WorkspaceRepository) Update(ctx context.Context, id primitive.ObjectID, update domain.WorkspaceUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.IsPublic != nil {
		set["isPublic"] = *update.IsPublic
	}
	return updateByID(ctx, r.coll, id, bson.M{"$set": set}, "workspace")
}

func (r *WorkspaceRepository) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}, "workspace")
}

func (r *WorkspaceRepository) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "workspace")
}

func (r *WorkspaceRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()},
	}, "workspace")
}

func (r *WorkspaceRepository) PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$push": bson.M{"activities": activityID}}, "workspace")
}
