package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standakozak/ticketsbooking/internal/clock"
	"github.com/standakozak/ticketsbooking/internal/model"
)

func newSweepEnv(t *testing.T) (*fakeStore, *fakeNotifier, *Ledger, *Sweeper) {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	ledger := NewLedger()
	lifecycle := NewLifecycle(store, ledger, clock.NewFixed(testNow))
	sweeper := NewSweeper(store, lifecycle, ledger, notifier, clock.NewFixed(testNow), 3)
	return store, notifier, ledger, sweeper
}

// bookAt registers an attendee and books n standing seats with the
// given booking timestamp.
func bookAt(t *testing.T, store *fakeStore, name string, n int, bookedAt time.Time) (uint64, []uint64) {
	t.Helper()
	ctx := context.Background()
	store.seedStanding(n)
	attendeeID, err := store.CreateAttendee(ctx, model.Attendee{Name: name, Email: name + "@example.com"})
	require.NoError(t, err)
	ids, err := store.ClaimStanding(ctx, n)
	require.NoError(t, err)
	require.NoError(t, store.CommitBooked(ctx, ids, attendeeID, bookedAt))
	return attendeeID, ids
}

func TestSweepExpired(t *testing.T) {
	store, notifier, ledger, sweeper := newSweepEnv(t)
	ctx := context.Background()

	// Four days old with a three-day threshold: expired.
	staleID, staleSeats := bookAt(t, store, "stale", 2, testNow.AddDate(0, 0, -4))
	// Two days old: still within the grace period.
	freshID, freshSeats := bookAt(t, store, "fresh", 1, testNow.AddDate(0, 0, -2))
	// Old but paid: never swept.
	paidID, _ := bookAt(t, store, "paid", 1, testNow.AddDate(0, 0, -10))
	require.NoError(t, store.SetAttendeePaid(ctx, paidID, true))
	require.NoError(t, store.SetPaidByOwner(ctx, paidID, true))

	report, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Cancelled)
	require.NotEmpty(t, report.Lines)
	assert.Equal(t, "Number of cancelled tickets: 2", report.Lines[0])
	assert.Len(t, report.Lines, 3)

	for _, id := range staleSeats {
		seat, err := store.GetSeat(ctx, id)
		require.NoError(t, err)
		assert.False(t, seat.Booked)
		assert.Nil(t, seat.OwnerID)
	}
	seat, err := store.GetSeat(ctx, freshSeats[0])
	require.NoError(t, err)
	assert.True(t, seat.Booked)
	require.NotNil(t, seat.OwnerID)
	assert.Equal(t, freshID, *seat.OwnerID)

	// One cancellation mail per affected attendee, not per seat.
	assert.Equal(t, []NotificationKind{MailBookingCancelled}, notifier.sentKinds())
	assert.Equal(t, staleID, notifier.sent[0].AttendeeID)

	entries := ledger.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, staleID, e.AttendeeID)
	}
}

func TestSweepReplacesLedgerGeneration(t *testing.T) {
	store, _, _, sweeper := newSweepEnv(t)
	ctx := context.Background()

	_, firstSeats := bookAt(t, store, "first", 1, testNow.AddDate(0, 0, -5))

	_, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)

	// A later specific cancellation starts a new generation; the swept
	// batch stops being restorable.
	secondID, secondSeats := bookAt(t, store, "second", 1, testNow)
	_, err = sweeper.CancelSpecific(ctx, secondID, secondSeats[0])
	require.NoError(t, err)

	report, err := sweeper.RestoreLastSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Restored)

	restored, err := store.GetSeat(ctx, secondSeats[0])
	require.NoError(t, err)
	assert.True(t, restored.Booked)
	assert.Equal(t, secondID, *restored.OwnerID)

	gone, err := store.GetSeat(ctx, firstSeats[0])
	require.NoError(t, err)
	assert.False(t, gone.Booked, "first generation must not be restored")
	assert.Nil(t, gone.OwnerID)
}

func TestRestoreIsIdempotent(t *testing.T) {
	store, _, _, sweeper := newSweepEnv(t)
	ctx := context.Background()

	attendeeID, seats := bookAt(t, store, "undo", 2, testNow.AddDate(0, 0, -4))
	_, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)

	first, err := sweeper.RestoreLastSweep(ctx)
	require.NoError(t, err)
	second, err := sweeper.RestoreLastSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 2, first.Restored)
	require.NotEmpty(t, first.Lines)
	assert.Equal(t, WarningPaymentNotRestored, first.Lines[0])

	for _, id := range seats {
		seat, err := store.GetSeat(ctx, id)
		require.NoError(t, err)
		assert.True(t, seat.Booked)
		assert.Equal(t, attendeeID, *seat.OwnerID)
		// Payment state stays cleared even though the booking is back.
		assert.False(t, seat.Paid)
	}
}

func TestRestoreWithEmptyLedger(t *testing.T) {
	_, _, _, sweeper := newSweepEnv(t)
	report, err := sweeper.RestoreLastSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Restored)
	assert.Equal(t, []string{"No tickets were cancelled"}, report.Lines)
}

func TestCancelSpecificGuardsOwnership(t *testing.T) {
	store, _, ledger, sweeper := newSweepEnv(t)
	ctx := context.Background()

	attendeeID, seats := bookAt(t, store, "owner", 1, testNow)

	_, err := sweeper.CancelSpecific(ctx, attendeeID+1, seats[0])
	assert.ErrorIs(t, err, model.ErrSeatNotFound)
	assert.True(t, ledger.Empty(), "failed cancel must not start a new generation")

	seat, err := store.GetSeat(ctx, seats[0])
	require.NoError(t, err)
	assert.True(t, seat.Booked)
}

func TestCancelSpecificRejectsCollectedSeat(t *testing.T) {
	store, _, ledger, sweeper := newSweepEnv(t)
	ctx := context.Background()

	// An earlier swept batch whose generation must survive the rejected
	// cancel below.
	bookAt(t, store, "swept", 1, testNow.AddDate(0, 0, -4))
	_, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)

	attendeeID, seats := bookAt(t, store, "holder", 1, testNow)
	require.NoError(t, store.SetAttendeeCollected(ctx, attendeeID, true))
	require.NoError(t, store.SetCollectedByOwner(ctx, attendeeID, true))

	_, err = sweeper.CancelSpecific(ctx, attendeeID, seats[0])
	assert.ErrorIs(t, err, model.ErrStateConflict)

	seat, err := store.GetSeat(ctx, seats[0])
	require.NoError(t, err)
	assert.True(t, seat.Booked, "a collected seat must stay booked")
	assert.True(t, seat.Collected)
	require.NotNil(t, seat.OwnerID)
	assert.Equal(t, attendeeID, *seat.OwnerID)

	require.Len(t, ledger.Entries(), 1, "previous generation must stay restorable")
}

func TestSweepAfterRestoreExpiresAgain(t *testing.T) {
	store, _, _, sweeper := newSweepEnv(t)
	ctx := context.Background()

	_, seats := bookAt(t, store, "stale", 1, testNow.AddDate(0, 0, -4))

	first, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Cancelled)

	_, err = sweeper.RestoreLastSweep(ctx)
	require.NoError(t, err)

	// The restored booking keeps its original timestamp, so the next
	// sweep releases it again.
	second, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Cancelled)

	seat, err := store.GetSeat(ctx, seats[0])
	require.NoError(t, err)
	assert.False(t, seat.Booked)
	assert.Nil(t, seat.OwnerID)
}

func TestSweepNotifiesAdminForMissingAttendee(t *testing.T) {
	store, notifier, _, sweeper := newSweepEnv(t)
	ctx := context.Background()

	attendeeID, _ := bookAt(t, store, "ghost", 1, testNow.AddDate(0, 0, -4))
	// The attendee record vanished while the booking rows stayed.
	require.NoError(t, store.DeleteAttendee(ctx, attendeeID))

	report, err := sweeper.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Cancelled)

	assert.Empty(t, notifier.sentKinds())
	require.Len(t, notifier.adminSent, 1)
	assert.Equal(t, "Cancellation notice undeliverable", notifier.adminSent[0])
}
