package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/taskboard/internal/domain"
)

// BoardRepository handles board storage. Ordering arrays are only ever changed
// with single-document array operators.
type BoardRepository struct {
	coll *mongo.Collection
}

func (r *BoardRepository) Create(ctx context.Context, board *domain.Board) error {
	if _, err := r.coll.InsertOne(ctx, board); err != nil {
		return translate(err, "board")
	}
	return nil
}

func (r *BoardRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Board, error) {
	return findOne[domain.Board](ctx, r.coll, bson.M{"_id": id}, "board")
}

// ListByMember returns live boards where userID is an active member
func (r *BoardRepository) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]domain.Board, error) {
	filter := bson.M{
		"isDeleted": false,
		"members":   bson.M{"$elemMatch": bson.M{"user": userID, "isActive": true}},
	}
	return findAll[domain.Board](ctx, r.coll, filter, "board", options.Find().SetSort(byCreation))
}

func (r *BoardRepository) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]domain.Board, error) {
	filter := bson.M{"isDeleted": false, "workspace": workspaceID}
	return findAll[domain.Board](ctx, r.coll, filter, "board", options.Find().SetSort(byCreation))
}

func (r *BoardRepository) Update(ctx context.Context, id primitive.ObjectID, update domain.BoardUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Visibility != nil {
		set["visibility"] = *update.Visibility
	}
	if update.Background != nil {
		set["background"] = *update.Background
	}
	return updateByID(ctx, r.coll, id, bson.M{"$set": set}, "board")
}

// AddMember appends a membership entry unless the user already has one
func (r *BoardRepository) AddMember(ctx context.Context, id primitive.ObjectID, member domain.BoardMember) error {
	filter := bson.M{"_id": id, "members.user": bson.M{"$ne": member.User}}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return updateGuarded(ctx, r.coll, id, filter, update, "board",
		domain.Conflict("user is already a board member"))
}

func (r *BoardRepository) SetMemberActive(ctx context.Context, id, userID primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": id, "members.user": userID}
	update := bson.M{"$set": bson.M{"members.$.isActive": active, "updatedAt": time.Now().UTC()}}
	return updateGuarded(ctx, r.coll, id, filter, update, "board",
		domain.NotFound("board member not found"))
}

func (r *BoardRepository) AddInvited(ctx context.Context, id, userID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$addToSet": bson.M{"invitedUsers": userID}}, "board")
}

func (r *BoardRepository) AppendListOrder(ctx context.Context, id, listID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"listOrderIds": listID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "board")
}

func (r *BoardRepository) SetListOrder(ctx context.Context, id primitive.ObjectID, order []primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{"listOrderIds": order, "updatedAt": time.Now().UTC()},
	}, "board")
}

func (r *BoardRepository) PullListOrder(ctx context.Context, id primitive.ObjectID, listIDs ...primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$pullAll": bson.M{"listOrderIds": listIDs},
		"$set":     bson.M{"updatedAt": time.Now().UTC()},
	}, "board")
}

func (r *BoardRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{
			"isDeleted":    true,
			"listOrderIds": bson.A{},
			"updatedAt":    time.Now().UTC(),
		},
	}, "board")
}

func (r *BoardRepository) PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$push": bson.M{"activities": activityID}}, "board")
}
