package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/taskboard/internal/domain"
)

// CardRepository handles cards and their embedded checklists, comments and notes.
// Embedded content is changed with positional and filtered array updates so
// concurrent writers never overwrite each other's arrays.
type CardRepository struct {
	coll *mongo.Collection
}

func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	if _, err := r.coll.InsertOne(ctx, card); err != nil {
		return translate(err, "card")
	}
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Card, error) {
	return findOne[domain.Card](ctx, r.coll, bson.M{"_id": id}, "card")
}

func (r *CardRepository) ListByList(ctx context.Context, listID primitive.ObjectID) ([]domain.Card, error) {
	filter := bson.M{"isDeleted": false, "list": listID}
	return findAll[domain.Card](ctx, r.coll, filter, "card", options.Find().SetSort(byCreation))
}

func (r *CardRepository) Update(ctx context.Context, id primitive.ObjectID, update domain.CardUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Position != nil {
		set["position"] = *update.Position
	}
	if update.Completed != nil {
		set["completed"] = *update.Completed
	}
	if update.DueDate != nil {
		set["dueDate"] = update.DueDate.UTC()
	}
	return updateByID(ctx, r.coll, id, bson.M{"$set": set}, "card")
}

func (r *CardRepository) Relocate(ctx context.Context, id, listID, boardID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{"list": listID, "board": boardID, "updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) softDeleteMany(ctx context.Context, filter bson.M) error {
	filter["isDeleted"] = false
	_, err := r.coll.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return translate(err, "card")
	}
	return nil
}

func (r *CardRepository) SoftDeleteByList(ctx context.Context, listID primitive.ObjectID) error {
	return r.softDeleteMany(ctx, bson.M{"list": listID})
}

func (r *CardRepository) SoftDeleteByBoard(ctx context.Context, boardID primitive.ObjectID) error {
	return r.softDeleteMany(ctx, bson.M{"board": boardID})
}

func (r *CardRepository) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$addToSet": bson.M{"members": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) PullMemberByBoard(ctx context.Context, boardID, userID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx, bson.M{"board": boardID, "members": userID}, bson.M{
		"$pull": bson.M{"members": userID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return translate(err, "card")
	}
	return nil
}

func (r *CardRepository) PushActivity(ctx context.Context, id, activityID primitive.ObjectID) error {
	return updateByID(ctx, r.coll, id, bson.M{"$push": bson.M{"activities": activityID}}, "card")
}

func (r *CardRepository) AppendComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) HideComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	filter := bson.M{
		"_id":      id,
		"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "isDeleted": false}},
	}
	update := bson.M{"$set": bson.M{"comments.$.isDeleted": true, "updatedAt": time.Now().UTC()}}
	return updateGuarded(ctx, r.coll, id, filter, update, "card",
		domain.Conflict("comment is already hidden"))
}

func (r *CardRepository) AppendNote(ctx context.Context, id primitive.ObjectID, note domain.Note) error {
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "card")
}

func (r *CardRepository) HideNote(ctx context.Context, id, noteID primitive.ObjectID) error {
	filter := bson.M{
		"_id":   id,
		"notes": bson.M{"$elemMatch": bson.M{"_id": noteID, "isDeleted": false}},
	}
	update := bson.M{"$set": bson.M{"notes.$.isDeleted": true, "updatedAt": time.Now().UTC()}}
	return updateGuarded(ctx, r.coll, id, filter, update, "card",
		domain.Conflict("note is already hidden"))
}

func (r *CardRepository) AppendChecklist(ctx context.Context, id primitive.ObjectID, checklist domain.Checklist) error {
	if checklist.Items == nil {
		checklist.Items = []domain.ChecklistItem{}
	}
	return updateByID(ctx, r.coll, id, bson.M{
		"$push": bson.M{"checklists": checklist},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "card")
}

func liveChecklistFilter(id, checklistID primitive.ObjectID) bson.M {
	return bson.M{
		"_id":        id,
		"checklists": bson.M{"$elemMatch": bson.M{"_id": checklistID, "isDeleted": false}},
	}
}

func (r *CardRepository) RenameChecklist(ctx context.Context, id, checklistID primitive.ObjectID, title string) error {
	update := bson.M{"$set": bson.M{"checklists.$.title": title, "updatedAt": time.Now().UTC()}}
	return updateGuarded(ctx, r.coll, id, liveChecklistFilter(id, checklistID), update, "card",
		domain.NotFound("checklist not found"))
}

func (r *CardRepository) DeleteChecklist(ctx context.Context, id, checklistID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"checklists.$.isDeleted": true, "updatedAt": time.Now().UTC()}}
	return updateGuarded(ctx, r.coll, id, liveChecklistFilter(id, checklistID), update, "card",
		domain.Conflict("checklist is already deleted"))
}

// PushChecklistItem appends item to a live checklist when the card is still at expectedVersion
func (r *CardRepository) PushChecklistItem(ctx context.Context, id, checklistID primitive.ObjectID, expectedVersion int64, item domain.ChecklistItem) (int64, error) {
	filter := liveChecklistFilter(id, checklistID)
	filter["version"] = expectedVersion

	update := bson.M{
		"$push": bson.M{"checklists.$.items": item},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.compareAndSwap(ctx, id, expectedVersion, filter, update, options.FindOneAndUpdate(), "checklist changed concurrently")
}

// PatchChecklistItem overwrites the patched fields of a live item when the card is still at expectedVersion
func (r *CardRepository) PatchChecklistItem(ctx context.Context, id, checklistID, itemID primitive.ObjectID, expectedVersion int64, patch domain.ChecklistItemPatch) (int64, error) {
	filter := bson.M{
		"_id":     id,
		"version": expectedVersion,
		"checklists": bson.M{"$elemMatch": bson.M{
			"_id":       checklistID,
			"isDeleted": false,
			"items":     bson.M{"$elemMatch": bson.M{"_id": itemID, "isDeleted": false}},
		}},
	}

	const item = "checklists.$[cl].items.$[it]."
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Text != nil {
		set[item+"text"] = *patch.Text
	}
	if patch.Completed != nil {
		set[item+"completed"] = *patch.Completed
	}
	if patch.IsDeleted != nil {
		set[item+"isDeleted"] = *patch.IsDeleted
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}

	opts := options.FindOneAndUpdate().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"cl._id": checklistID},
			bson.M{"it._id": itemID},
		},
	})
	return r.compareAndSwap(ctx, id, expectedVersion, filter, update, opts, "checklist item changed concurrently")
}

// compareAndSwap runs a version-guarded update and returns the new version.
// When the guard fails it reports whether the card is missing, moved past
// expectedVersion, or lost the targeted embedded element.
func (r *CardRepository) compareAndSwap(ctx context.Context, id primitive.ObjectID, expectedVersion int64, filter, update bson.M, opts *options.FindOneAndUpdateOptions, goneMsg string) (int64, error) {
	opts.SetReturnDocument(options.After).SetProjection(bson.M{"version": 1})

	var out struct {
		Version int64 `bson:"version"`
	}
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return out.Version, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, translate(err, "card")
	}

	current, err := findOne[domain.Card](ctx, r.coll, bson.M{"_id": id}, "card")
	if err != nil {
		return 0, err
	}
	if current.Version != expectedVersion {
		return 0, domain.Conflict("card version mismatch: expected %d, current %d", expectedVersion, current.Version).
			WithDetails(map[string]any{"currentVersion": current.Version})
	}
	return 0, domain.Conflict("%s", goneMsg)
}
