// internal/app/store/closures/derive.go
package closurestore

import (
	"time"

	"github.com/dalemusser/uplinehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BranchMarker returns the root_child_id for the row (parentRow.AncestorID, userID)
// that extends parentRow by one step down to userID.
//
// When parentRow is the parent's self-row, the new row has depth 1 and userID
// itself is the immediate child of the ancestor. Otherwise the path to userID
// leaves the ancestor through the same child as the path to the parent.
func BranchMarker(parentRow models.ClosureEntry, userID primitive.ObjectID) *primitive.ObjectID {
	if parentRow.Depth == 0 {
		id := userID
		return &id
	}
	if parentRow.RootChildID == nil {
		return nil
	}
	id := *parentRow.RootChildID
	return &id
}

// DeriveClosures builds every closure row for a new user: the self-row plus
// one row per entry of the parent's chain (rows whose descendant is the
// parent, self-row included).
//
// If the parent has no stored chain, a single direct edge is produced and
// fellBack is true.
func DeriveClosures(parentChain []models.ClosureEntry, userID primitive.ObjectID, parentID *primitive.ObjectID, now time.Time) (rows []models.ClosureEntry, fellBack bool) {
	rows = append(rows, models.ClosureEntry{
		AncestorID:   userID,
		DescendantID: userID,
		Depth:        0,
		CreatedAt:    now,
	})
	if parentID == nil {
		return rows, false
	}

	for _, pr := range parentChain {
		if pr.DescendantID != *parentID {
			continue
		}
		rows = append(rows, models.ClosureEntry{
			AncestorID:   pr.AncestorID,
			DescendantID: userID,
			Depth:        pr.Depth + 1,
			RootChildID:  BranchMarker(pr, userID),
			CreatedAt:    now,
		})
	}

	if len(rows) == 1 {
		child := userID
		rows = append(rows, models.ClosureEntry{
			AncestorID:   *parentID,
			DescendantID: userID,
			Depth:        1,
			RootChildID:  &child,
			CreatedAt:    now,
		})
		return rows, true
	}
	return rows, false
}
