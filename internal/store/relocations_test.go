package store

import (
	"context"
	"testing"
	"time"

	"parkovka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRelocationGuard(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	rel := &models.Relocation{
		BookingID:   "bk-1",
		State:       models.RelocationAwaitingDecision,
		OfferFloor:  "B",
		OfferSlotID: "B05",
	}
	require.NoError(t, st.CreateRelocation(ctx, rel))

	// Повторная фиксация того же инцидента.
	err := st.CreateRelocation(ctx, &models.Relocation{
		BookingID: "bk-1",
		State:     models.RelocationAwaitingDecision,
	})
	assert.ErrorIs(t, err, ErrIncidentExists)

	got, err := st.GetRelocation(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.RelocationAwaitingDecision, got.State)
	assert.Equal(t, "B05", got.OfferSlotID)
	assert.False(t, got.Terminal())
}

func TestAcceptRelocation(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	old := hourlyBooking("bk-1", "ivan", "B", "B03", day, "10:00", "12:00")
	require.NoError(t, st.CommitBooking(ctx, old))
	require.NoError(t, st.CreateRelocation(ctx, &models.Relocation{
		BookingID:   "bk-1",
		State:       models.RelocationAwaitingDecision,
		OfferFloor:  "B",
		OfferSlotID: "B05",
	}))

	replacement := hourlyBooking("bk-1r", "ivan", "B", "B05", day, "10:00", "12:00")
	require.NoError(t, st.AcceptRelocation(ctx, old, replacement))

	cancelled, err := st.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.CancelReasonRelocated, cancelled.CancelReason)

	created, err := st.GetBooking(ctx, "bk-1r")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, created.Status)
	assert.Equal(t, "B05", created.SlotID)

	rel, err := st.GetRelocation(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.RelocationRelocated, rel.State)
	assert.Equal(t, "bk-1r", rel.NewBookingID)
	assert.True(t, rel.Terminal())

	// Оба слота пересчитаны.
	occOld, err := st.GetSlotOccupancy(ctx, "B", "B03")
	require.NoError(t, err)
	assert.Empty(t, occOld)
	occNew, err := st.GetSlotOccupancy(ctx, "B", "B05")
	require.NoError(t, err)
	assert.Len(t, occNew, 1)
}

func TestAcceptRelocationOfferTakenMeanwhile(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	old := hourlyBooking("bk-1", "ivan", "B", "B03", day, "10:00", "12:00")
	require.NoError(t, st.CommitBooking(ctx, old))
	require.NoError(t, st.CreateRelocation(ctx, &models.Relocation{
		BookingID:   "bk-1",
		State:       models.RelocationAwaitingDecision,
		OfferFloor:  "B",
		OfferSlotID: "B05",
	}))

	// Someone books the offered slot while the holder is deciding.
	require.NoError(t, st.CommitBooking(ctx, hourlyBooking("bk-2", "petr", "B", "B05", day, "11:00", "13:00")))

	replacement := hourlyBooking("bk-1r", "ivan", "B", "B05", day, "10:00", "12:00")
	err := st.AcceptRelocation(ctx, old, replacement)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Транзакция откатилась целиком.
	stillActive, err := st.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stillActive.Status)
	_, err = st.GetBooking(ctx, "bk-1r")
	assert.ErrorIs(t, err, ErrNotFound)
	rel, err := st.GetRelocation(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.RelocationAwaitingDecision, rel.State)
}

func TestDeclineRelocation(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	b := hourlyBooking("bk-1", "ivan", "B", "B03", day, "10:00", "12:00")
	require.NoError(t, st.CommitBooking(ctx, b))
	require.NoError(t, st.CreateRelocation(ctx, &models.Relocation{
		BookingID: "bk-1",
		State:     models.RelocationAwaitingDecision,
	}))

	coupon := &models.Coupon{
		ID:              "cp-1",
		Username:        "ivan",
		BookingID:       "bk-1",
		DiscountPercent: models.DiscountForRate(b.RateType),
		CreatedAt:       time.Now(),
		ExpiryDate:      time.Now().AddDate(0, models.CouponValidityMonths, 0),
	}
	require.NoError(t, st.DeclineRelocation(ctx, b, coupon))

	cancelled, err := st.GetBooking(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.CancelReasonCompensated, cancelled.CancelReason)

	rel, err := st.GetRelocation(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.RelocationCompensated, rel.State)
	assert.Equal(t, "cp-1", rel.CouponID)

	got, err := st.GetCoupon(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.DiscountPercent)
	assert.False(t, got.Used)

	count, err := st.CountActiveCoupons(ctx, "ivan")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateRelocationBlocked(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	// Исчерпание слотов фиксируется сразу терминальным состоянием.
	require.NoError(t, st.CreateRelocation(ctx, &models.Relocation{
		BookingID: "bk-1",
		State:     models.RelocationBlocked,
	}))

	rel, err := st.GetRelocation(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, models.RelocationBlocked, rel.State)
	assert.True(t, rel.Terminal())
}

func TestGetRelocationMissing(t *testing.T) {
	st := setupTestStore(t)
	_, err := st.GetRelocation(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
