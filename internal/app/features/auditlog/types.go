// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/uplinehub/internal/app/store/audit"
	"github.com/dalemusser/uplinehub/internal/app/system/paging"
)

// listItem is a single audit event in the JSON response.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	UserID        string            `json:"user_id,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toItem(e audit.Event) listItem {
	item := listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		Reference:     e.Reference,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.UserID != nil {
		item.UserID = e.UserID.Hex()
	}
	return item
}

type listResponse struct {
	Events []listItem  `json:"events"`
	Paging paging.Meta `json:"paging"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	networkEvents := []string{
		audit.EventClosuresCreated,
		audit.EventClosureFallbackEdge,
		audit.EventLevelPromoted,
		audit.EventPromotionFailed,
		audit.EventPassiveIncomeDistributed,
		audit.EventDistributionAborted,
		audit.EventAppraisalBonusCredited,
	}
	adminEvents := []string{
		audit.EventLevelCreated,
		audit.EventWalletFunded,
		audit.EventUserSignedUp,
	}

	switch category {
	case audit.CategoryNetwork:
		return networkEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(networkEvents)+len(adminEvents))
		all = append(all, networkEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
