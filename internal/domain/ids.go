package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a 24-character hex identifier, naming the field on failure
func ParseID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, Invalid("malformed %s: %q", field, hex)
	}
	return id, nil
}

// ParseIDs parses every identifier in hexes
func ParseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := ParseID(field, h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ContainsID reports whether id is present in ids
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
