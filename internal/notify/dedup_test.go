package notify

import (
	"testing"

	"parkovka/internal/models"

	"github.com/stretchr/testify/assert"
)

func notif(msg, slot, recipient string, ts int64) *models.Notification {
	return &models.Notification{
		Recipient: recipient,
		Message:   msg,
		SlotID:    slot,
		Timestamp: ts,
	}
}

func TestShouldEmit(t *testing.T) {
	cooldown := models.DedupCooldown.Milliseconds() // 10 minutes
	base := int64(1_700_000_000_000)
	minute := int64(60_000)

	t.Run("NoHistory", func(t *testing.T) {
		assert.True(t, ShouldEmit(notif("full", "A01", "ivan", base), nil, cooldown))
	})

	t.Run("DuplicateInsideCooldown", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		ok := ShouldEmit(notif("full", "A01", "ivan", base+2*minute), recent, cooldown)
		assert.False(t, ok)
	})

	t.Run("DuplicateAfterCooldown", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		ok := ShouldEmit(notif("full", "A01", "ivan", base+11*minute), recent, cooldown)
		assert.True(t, ok)
	})

	t.Run("ExactBoundaryEmits", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		ok := ShouldEmit(notif("full", "A01", "ivan", base+cooldown), recent, cooldown)
		assert.True(t, ok)
	})

	t.Run("DifferentSlotEmits", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		assert.True(t, ShouldEmit(notif("full", "A02", "ivan", base+minute), recent, cooldown))
	})

	t.Run("DifferentMessageEmits", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		assert.True(t, ShouldEmit(notif("reminder", "A01", "ivan", base+minute), recent, cooldown))
	})

	t.Run("DifferentRecipientEmits", func(t *testing.T) {
		recent := []*models.Notification{notif("full", "A01", "ivan", base)}
		assert.True(t, ShouldEmit(notif("full", "A01", "petr", base+minute), recent, cooldown))
	})

	t.Run("ClockSkewBothDirections", func(t *testing.T) {
		// Recent записи могут иметь более поздний timestamp.
		recent := []*models.Notification{notif("full", "A01", "ivan", base+5*minute)}
		assert.False(t, ShouldEmit(notif("full", "A01", "ivan", base), recent, cooldown))
	})
}
