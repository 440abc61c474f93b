package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/taskboard/internal/domain"
)

// ActivityRepository handles the append-only activity log
type ActivityRepository struct {
	coll *mongo.Collection
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	if _, err := r.coll.InsertOne(ctx, activity); err != nil {
		return translate(err, "activity")
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	return findOne[domain.Activity](ctx, r.coll, bson.M{"_id": id}, "activity")
}

func latest(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// ListByBoard returns the newest activities recorded on the board or anything inside it
func (r *ActivityRepository) ListByBoard(ctx context.Context, boardID primitive.ObjectID, linked []primitive.ObjectID, limit int) ([]domain.Activity, error) {
	or := bson.A{bson.M{"board": boardID}, bson.M{"target": boardID}}
	if len(linked) > 0 {
		or = append(or, bson.M{"_id": bson.M{"$in": linked}})
	}
	filter := bson.M{"$or": or}
	return findAll[domain.Activity](ctx, r.coll, filter, "activity", latest(limit))
}

func (r *ActivityRepository) ListByTarget(ctx context.Context, target primitive.ObjectID, limit int) ([]domain.Activity, error) {
	return findAll[domain.Activity](ctx, r.coll, bson.M{"target": target}, "activity", latest(limit))
}

// NotificationRepository handles per-recipient notifications
type NotificationRepository struct {
	coll *mongo.Collection
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if _, err := r.coll.InsertOne(ctx, notification); err != nil {
		return translate(err, "notification")
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	return findOne[domain.Notification](ctx, r.coll, bson.M{"_id": id}, "notification")
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient primitive.ObjectID, includeHidden bool, limit int) ([]domain.Notification, error) {
	filter := bson.M{"recipient": recipient}
	if !includeHidden {
		filter["isHidden"] = false
	}
	opts := options.Find().SetSort(newest)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[domain.Notification](ctx, r.coll, filter, "notification", opts)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$set": bson.M{"isRead": true}}, "notification")
}

func (r *NotificationRepository) Hide(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$set": bson.M{"isHidden": true}}, "notification")
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, translate(err, "notification")
	}
	return res.ModifiedCount, nil
}
