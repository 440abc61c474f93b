package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/taskboard/internal/domain"
)

// arrange sorts items by order. Items missing from order are appended in their
// original sequence and their ids returned as stragglers.
func arrange[T any](order []primitive.ObjectID, items []T, id func(*T) primitive.ObjectID) ([]T, []primitive.ObjectID) {
	byID := make(map[primitive.ObjectID]int, len(items))
	for i := range items {
		byID[id(&items[i])] = i
	}

	out := make([]T, 0, len(items))
	placed := make(map[primitive.ObjectID]bool, len(items))
	for _, oid := range order {
		i, ok := byID[oid]
		if !ok || placed[oid] {
			continue
		}
		placed[oid] = true
		out = append(out, items[i])
	}

	var stragglers []primitive.ObjectID
	for i := range items {
		if iid := id(&items[i]); !placed[iid] {
			stragglers = append(stragglers, iid)
			out = append(out, items[i])
		}
	}
	return out, stragglers
}

// childRef is what order validation needs to know about one child
type childRef struct {
	parent  primitive.ObjectID
	deleted bool
}

type childLookup func(ctx context.Context, id primitive.ObjectID) (childRef, error)

// validateOrder checks that order is a permutation of the live children of parent.
// The first failing id is named in the error details.
func validateOrder(ctx context.Context, kind string, parent primitive.ObjectID, order, live []primitive.ObjectID, lookup childLookup) error {
	seen := make(map[primitive.ObjectID]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return domain.Invalid("%s %s appears more than once", kind, id.Hex()).
				WithDetails(map[string]any{"id": id.Hex()})
		}
		seen[id] = true

		ref, err := lookup(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Invalid("%s %s does not exist", kind, id.Hex()).
					WithDetails(map[string]any{"id": id.Hex()})
			}
			return fmt.Errorf("failed to get %s: %w", kind, err)
		}
		if ref.deleted {
			return domain.Invalid("%s %s is deleted", kind, id.Hex()).
				WithDetails(map[string]any{"id": id.Hex()})
		}
		if ref.parent != parent {
			return domain.Invalid("%s %s belongs elsewhere", kind, id.Hex()).
				WithDetails(map[string]any{"id": id.Hex()})
		}
	}

	var missing []string
	for _, id := range live {
		if !seen[id] {
			missing = append(missing, id.Hex())
		}
	}
	if len(missing) > 0 {
		return domain.Invalid("order is missing %d %s(s)", len(missing), kind).
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func listIDs(lists []domain.List) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(lists))
	for i := range lists {
		ids[i] = lists[i].ID
	}
	return ids
}

func cardIDs(cards []domain.Card) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(cards))
	for i := range cards {
		ids[i] = cards[i].ID
	}
	return ids
}
