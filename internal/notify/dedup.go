package notify

import "parkovka/internal/models"

// ShouldEmit reports whether a notification should be stored, given the
// recipient's recent notifications. Two notifications are duplicates when
// message, slot and recipient all match within the cooldown window.
//
// The check is advisory: it reads the full recent set at call time, so two
// concurrent emitters can both pass. Duplicate low-value alerts are a UX
// nuisance, not a correctness violation.
func ShouldEmit(n *models.Notification, recent []*models.Notification, cooldownMs int64) bool {
	for _, r := range recent {
		if r.Message != n.Message || r.SlotID != n.SlotID || r.Recipient != n.Recipient {
			continue
		}
		delta := n.Timestamp - r.Timestamp
		if delta < 0 {
			delta = -delta
		}
		if delta < cooldownMs {
			return false
		}
	}
	return true
}
