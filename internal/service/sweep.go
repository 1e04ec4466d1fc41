package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/standakozak/ticketsbooking/internal/clock"
	"github.com/standakozak/ticketsbooking/internal/model"
)

// WarningPaymentNotRestored leads every restore report. A cancelled seat
// was always unpaid by invariant, so nothing financial is lost; the
// warning keeps staff from assuming otherwise.
const WarningPaymentNotRestored = "Warning! The payment was not restored."

// SweepStore is the persistence surface of the expiry sweep.
type SweepStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListExpired(ctx context.Context, before time.Time) ([]model.Seat, error)
	GetSeat(ctx context.Context, id uint64) (model.Seat, error)
	GetAttendee(ctx context.Context, id uint64) (model.Attendee, error)
	Rebook(ctx context.Context, seatID, attendeeID uint64) error
}

// Sweeper expires stale unpaid holds and owns the cancellation ledger.
// Sweeps are serialized through an in-process mutex: ledger replacement
// is destructive, so two sweeps must never interleave.
type Sweeper struct {
	mu        sync.Mutex
	store     SweepStore
	lifecycle *Lifecycle
	ledger    *Ledger
	notifier  Notifier
	clock     clock.Clock

	thresholdDays int
}

// NewSweeper wires the sweep. thresholdDays is how long an unpaid
// booking may stand before an on-demand sweep releases it.
func NewSweeper(store SweepStore, lifecycle *Lifecycle, ledger *Ledger, notifier Notifier, clk clock.Clock, thresholdDays int) *Sweeper {
	return &Sweeper{
		store:         store,
		lifecycle:     lifecycle,
		ledger:        ledger,
		notifier:      notifier,
		clock:         clk,
		thresholdDays: thresholdDays,
	}
}

// SweepReport is the admin-facing result of one sweep.
type SweepReport struct {
	Cancelled int
	Lines     []string
}

// SweepExpired cancels every booked, unpaid, uncollected seat whose
// booking is older than the threshold. It starts a new ledger generation
// (the previous sweep stops being restorable), cancels through the
// lifecycle controller inside one transaction, and notifies each
// affected attendee after the transaction commits. A missing attendee
// record or a failed send is routed to the administrative channel and
// never fails the sweep.
func (s *Sweeper) SweepExpired(ctx context.Context) (SweepReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().AddDate(0, 0, -s.thresholdDays)

	var (
		lines     []string
		affected  []uint64
		seenOwner = map[uint64]bool{}
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		lines = lines[:0]
		affected = affected[:0]

		expired, err := s.store.ListExpired(ctx, cutoff)
		if err != nil {
			return err
		}

		// New generation: only this batch will be restorable.
		s.ledger.Reset()

		for _, seat := range expired {
			if seat.OwnerID != nil && !seenOwner[*seat.OwnerID] {
				seenOwner[*seat.OwnerID] = true
				affected = append(affected, *seat.OwnerID)
			}
			snapshot, err := s.lifecycle.CancelSeat(ctx, seat.ID)
			if err != nil {
				return err
			}
			lines = append(lines, snapshot)
		}
		return nil
	})
	if err != nil {
		return SweepReport{}, err
	}

	s.notifyCancelled(ctx, affected)

	report := SweepReport{Cancelled: len(lines)}
	report.Lines = append([]string{fmt.Sprintf("Number of cancelled tickets: %d", len(lines))}, lines...)
	return report, nil
}

// CancelSpecific manually releases one seat of one attendee. It follows
// the same ledger-replacement rule as the sweep: the fresh generation
// holds exactly this cancellation, so only the latest batch is undoable.
// A rejected cancel leaves the previous generation restorable, which is
// why eligibility is checked before the reset.
func (s *Sweeper) CancelSpecific(ctx context.Context, attendeeID, seatID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, err := s.store.GetSeat(ctx, seatID)
	if err != nil {
		return "", err
	}
	if !seat.Booked || seat.OwnerID == nil || *seat.OwnerID != attendeeID {
		return "", model.ErrSeatNotFound
	}
	if seat.Paid || seat.Collected {
		return "", model.ErrStateConflict
	}

	s.ledger.Reset()
	return s.lifecycle.CancelSeat(ctx, seatID)
}

// RestoreReport is the admin-facing result of a restore.
type RestoreReport struct {
	Restored int
	Lines    []string
}

// RestoreLastSweep re-books every seat in the current ledger generation
// to its former owner. Payment state is never restored. The ledger is
// not cleared, so calling restore twice re-applies the same booked state
// and reproduces the same result.
func (s *Sweeper) RestoreLastSweep(ctx context.Context) (RestoreReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.Empty() {
		return RestoreReport{Lines: []string{"No tickets were cancelled"}}, nil
	}

	entries := s.ledger.Entries()
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		for _, e := range entries {
			if err := s.store.Rebook(ctx, e.SeatID, e.AttendeeID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RestoreReport{}, err
	}

	lines := []string{WarningPaymentNotRestored}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("Restored seat %d for attendee %d", e.SeatID, e.AttendeeID))
	}
	return RestoreReport{Restored: len(entries), Lines: lines}, nil
}

func (s *Sweeper) notifyCancelled(ctx context.Context, attendeeIDs []uint64) {
	for _, id := range attendeeIDs {
		attendee, err := s.store.GetAttendee(ctx, id)
		if err != nil {
			// The booking rows pointed at an attendee that no longer
			// exists; tell the admin instead of dropping the notice.
			fallback := fmt.Sprintf("Cancellation mail for attendee %d could not be addressed: %v", id, err)
			if adminErr := s.notifier.SendAdmin(ctx, "Cancellation notice undeliverable", fallback); adminErr != nil {
				log.Printf("sweep: admin fallback failed for attendee %d: %v", id, adminErr)
			}
			continue
		}
		err = s.notifier.Send(ctx, Notification{
			Kind:       MailBookingCancelled,
			AttendeeID: id,
			Recipient:  attendee.Email,
			Subject:    "Booking of your tickets was cancelled",
			Body:       fmt.Sprintf("Hello %s,\n\nyour unpaid ticket booking has expired and was cancelled.", attendee.Name),
		})
		if err != nil {
			log.Printf("sweep: cancellation mail for attendee %d not delivered: %v", id, err)
		}
	}
}
