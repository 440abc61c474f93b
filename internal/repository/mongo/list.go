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

// ListRepository handles list storage
type ListRepository struct {
	coll *mongo.Collection
}

func (r *ListRepository) Create(ctx context.Context, list *domain.List) error {
	if _, err := r.coll.InsertOne(ctx, list); err != nil {
		return translate(err, "list")
	}
	return nil
}

func (r *ListRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.List, error) {
	return findOne[domain.List](ctx, r.coll, bson.M{"_id": id}, "list")
}

func (r *ListRepository) ListByBoard(ctx context.Context, boardID primitive.ObjectID) ([]domain.List, error) {
	filter := bson.M{"isDeleted": false, "board": boardID}
	return findAll[domain.List](ctx, r.coll, filter, "list", options.Find().SetSort(byCreation))
}

func (r *ListRepository) Update(ctx context.Context, id primitive.ObjectID, update domain.ListUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Position != nil {
		set["position"] = *update.Position
	}
	return updateByID(ctx, r.coll, id, bson.M{"$set": set}, "list")
}

func (r *ListRepository) AppendCardOrder(ctx context.Context, id, cardID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"cardOrderIds": cardID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "list")
}

// InsertCardOrder inserts cardID at index. An index past the end appends.
func (r *ListRepository) InsertCardOrder(ctx context.Context, id, cardID primitive.ObjectID, index int) error {
	if index < 0 {
		return r.AppendCardOrder(ctx, id, cardID)
	}
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"cardOrderIds": bson.M{
			"$each":     bson.A{cardID},
			"$position": index,
		}},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}, "list")
}

func (r *ListRepository) SetCardOrder(ctx context.Context, id primitive.ObjectID, order []primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{"cardOrderIds": order, "updatedAt": time.Now().UTC()},
	}, "list")
}

func (r *ListRepository) PullCardOrder(ctx context.Context, id primitive.ObjectID, cardIDs ...primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$pullAll": bson.M{"cardOrderIds": cardIDs},
		"$set":     bson.M{"updatedAt": time.Now().UTC()},
	}, "list")
}

func (r *ListRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{
			"isDeleted":    true,
			"cardOrderIds": bson.A{},
			"updatedAt":    time.Now().UTC(),
		},
	}, "list")
}

func (r *ListRepository) SoftDeleteByBoard(ctx context.Context, boardID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"board": boardID, "isDeleted": false},
		bson.M{"$set": bson.M{
			"isDeleted":    true,
			"cardOrderIds": bson.A{},
			"updatedAt":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return translate(err, "list")
	}
	return nil
}

func (r *ListRepository) PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$push": bson.M{"activities": activityID}}, "list")
}
