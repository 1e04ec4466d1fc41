package service

import (
	"context"
	"time"

	"github.com/standakozak/ticketsbooking/internal/clock"
	"github.com/standakozak/ticketsbooking/internal/model"
)

// LifecycleStore is the persistence surface the lifecycle controller
// needs. All mutations honor a transaction carried in the context.
type LifecycleStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CommitBooked(ctx context.Context, seatIDs []uint64, attendeeID uint64, bookedAt time.Time) error
	GetSeat(ctx context.Context, id uint64) (model.Seat, error)
	GetAttendee(ctx context.Context, id uint64) (model.Attendee, error)
	SetAttendeePaid(ctx context.Context, id uint64, paid bool) error
	SetPaidByOwner(ctx context.Context, attendeeID uint64, paid bool) error
	SetAttendeeCollected(ctx context.Context, id uint64, collected bool) error
	SetCollectedByOwner(ctx context.Context, attendeeID uint64, collected bool) error
	ClearBooking(ctx context.Context, seatID uint64) error
}

// Lifecycle owns every seat state transition. The allocator, the sweep
// and the reconciliation engine all mutate seats through this one type,
// which is what keeps the invariants (booked=false implies no owner and
// unpaid; collected implies booked) enforceable in a single place.
type Lifecycle struct {
	store  LifecycleStore
	ledger *Ledger
	clock  clock.Clock
}

// NewLifecycle wires the controller. The ledger is shared with the
// Sweeper, which owns generation replacement.
func NewLifecycle(store LifecycleStore, ledger *Ledger, clk clock.Clock) *Lifecycle {
	return &Lifecycle{store: store, ledger: ledger, clock: clk}
}

// Commit transitions freshly claimed seats to booked, stamping the
// booking time and owner. The store re-checks the pre-state even though
// the allocator holds row locks; any mismatch surfaces as
// model.ErrStateConflict and aborts the enclosing transaction.
func (l *Lifecycle) Commit(ctx context.Context, seatIDs []uint64, attendeeID uint64) error {
	return l.store.CommitBooked(ctx, seatIDs, attendeeID, l.clock.Now())
}

// SetPaid sets the paid flag on the attendee and on every seat it owns,
// as one transaction. Partial application is never observable.
func (l *Lifecycle) SetPaid(ctx context.Context, attendeeID uint64, paid bool) error {
	return l.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := l.store.GetAttendee(ctx, attendeeID); err != nil {
			return err
		}
		if err := l.store.SetAttendeePaid(ctx, attendeeID, paid); err != nil {
			return err
		}
		return l.store.SetPaidByOwner(ctx, attendeeID, paid)
	})
}

// SetCollected fans out the collected flag the same way. This is the
// privileged staff path: it intentionally has no paid-state guard, staff
// may hand out tickets regardless of payment.
func (l *Lifecycle) SetCollected(ctx context.Context, attendeeID uint64, collected bool) error {
	return l.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := l.store.GetAttendee(ctx, attendeeID); err != nil {
			return err
		}
		if err := l.store.SetAttendeeCollected(ctx, attendeeID, collected); err != nil {
			return err
		}
		return l.store.SetCollectedByOwner(ctx, attendeeID, collected)
	})
}

// CancelSeat releases a booked seat: the owner reference, booked and
// paid flags are cleared, and the (attendee, seat) pair is appended to
// the current ledger generation. Only a booked, unpaid, uncollected
// seat is cancellable; a paid or collected seat returns
// model.ErrStateConflict and stays as it is. Returns the seat's
// pre-cancellation snapshot for audit display. A ledger entry may
// outlive a rolled-back sweep transaction; that is safe because restore
// is an idempotent re-application of booked state.
func (l *Lifecycle) CancelSeat(ctx context.Context, seatID uint64) (string, error) {
	var snapshot string
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		seat, err := l.store.GetSeat(ctx, seatID)
		if err != nil {
			return err
		}
		if !seat.Booked || seat.OwnerID == nil {
			return model.ErrSeatNotFound
		}
		if seat.Paid || seat.Collected {
			return model.ErrStateConflict
		}
		snapshot = seat.Describe()
		l.ledger.Record(*seat.OwnerID, seat.ID)
		return l.store.ClearBooking(ctx, seatID)
	})
	if err != nil {
		return "", err
	}
	return snapshot, nil
}
