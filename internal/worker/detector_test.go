package worker

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"parkovka/internal/models"
	"parkovka/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrigger struct {
	detected []string
}

func (f *fakeTrigger) Detect(ctx context.Context, bookingID string) error {
	f.detected = append(f.detected, bookingID)
	return nil
}

type recordingNotifier struct {
	sent []*models.Notification
}

func (r *recordingNotifier) Emit(ctx context.Context, n *models.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) EmitDeduped(ctx context.Context, n *models.Notification) (bool, error) {
	r.sent = append(r.sent, n)
	return true, nil
}

func setupDetector(t *testing.T) (*Detector, *store.Store, *fakeTrigger, *recordingNotifier) {
	logger := zerolog.New(os.Stdout)
	st, err := store.New(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	trigger := &fakeTrigger{}
	notifier := &recordingNotifier{}
	d := NewDetector(st, trigger, notifier, time.Minute, RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}, &logger)
	return d, st, trigger, notifier
}

func commitHourly(t *testing.T, st *store.Store, id, username, floor, slotID string, day time.Time, entry, exit string) {
	b := &models.Booking{
		ID:          id,
		Username:    username,
		BookingKind: models.KindResident,
		RateType:    models.RateHourly,
		Floor:       floor,
		SlotID:      slotID,
		EntryDate:   day,
		EntryTime:   entry,
		ExitDate:    day,
		ExitTime:    exit,
		Price:       250,
		Status:      models.StatusConfirmed,
	}
	require.NoError(t, st.CommitBooking(context.Background(), b))
}

func TestScanTriggersRelocationForObstructedBookings(t *testing.T) {
	d, st, trigger, _ := setupDetector(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	// Просрочившая заявка держит слот B01.
	commitHourly(t, st, "stale", "ivan", "B", "B01", day, "08:00", "09:00")
	// Следующая заявка на тот же слот уже должна была въехать.
	commitHourly(t, st, "obstructed", "petr", "B", "B01", day, "11:30", "13:00")
	// Parallel slots and later windows are untouched.
	commitHourly(t, st, "elsewhere", "oleg", "B", "B02", day, "11:30", "13:00")
	commitHourly(t, st, "later", "anna", "B", "B01", day, "18:00", "20:00")

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, d.scanOnce(ctx, now))

	assert.Equal(t, []string{"obstructed"}, trigger.detected)
}

func TestScanSendsEntryReminders(t *testing.T) {
	d, st, trigger, notifier := setupDetector(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	nextWeek := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)

	commitHourly(t, st, "soon", "ivan", "B", "B01", tomorrow, "10:00", "12:00")
	commitHourly(t, st, "far", "petr", "B", "B02", nextWeek, "10:00", "12:00")

	require.NoError(t, d.scanOnce(ctx, now))

	assert.Empty(t, trigger.detected)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "ivan", notifier.sent[0].Recipient)
	assert.Equal(t, "B01", notifier.sent[0].SlotID)
}

func TestReportUnusable(t *testing.T) {
	d, st, trigger, _ := setupDetector(t)
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	commitHourly(t, st, "bk-1", "ivan", "B", "B01", day, "10:00", "12:00")
	commitHourly(t, st, "bk-2", "petr", "B", "B01", day, "14:00", "16:00")
	commitHourly(t, st, "bk-3", "oleg", "B", "B02", day, "10:00", "12:00")
	require.NoError(t, st.CancelBooking(ctx, "bk-2", 1, models.CancelReasonUser))

	require.NoError(t, d.ReportUnusable(ctx, models.SlotRef{Floor: "B", SlotID: "B01"}))

	// Только активные заявки на указанном слоте.
	assert.Equal(t, []string{"bk-1"}, trigger.detected)
}

// flakyBookings fails the overdue read a fixed number of times.
type flakyBookings struct {
	failures int
	calls    int
}

func (f *flakyBookings) GetOverdueHourlyBookings(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("%w: locked", store.ErrStoreUnavailable)
	}
	return nil, nil
}
func (f *flakyBookings) GetActiveBookings(ctx context.Context) ([]*models.Booking, error) {
	return nil, nil
}
func (f *flakyBookings) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return nil, store.ErrNotFound
}
func (f *flakyBookings) GetUserBookings(ctx context.Context, username string) ([]*models.Booking, error) {
	return nil, nil
}
func (f *flakyBookings) CommitBooking(ctx context.Context, b *models.Booking) error { return nil }
func (f *flakyBookings) CancelBooking(ctx context.Context, id string, version int64, reason string) error {
	return nil
}
func (f *flakyBookings) GetSlotOccupancy(ctx context.Context, floor, slotID string) ([]models.SlotOccupancy, error) {
	return nil, nil
}

func TestRunScanRetriesTransientFailures(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	bookings := &flakyBookings{failures: 2}
	d := NewDetector(bookings, &fakeTrigger{}, &recordingNotifier{}, time.Minute, RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}, &logger)

	require.NoError(t, d.runScan(context.Background()))
	assert.Equal(t, 3, bookings.calls)
}

func TestRunScanGivesUpAfterMaxRetries(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	bookings := &flakyBookings{failures: 100}
	d := NewDetector(bookings, &fakeTrigger{}, &recordingNotifier{}, time.Minute, RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}, &logger)

	err := d.runScan(context.Background())
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Equal(t, 3, bookings.calls)
}
