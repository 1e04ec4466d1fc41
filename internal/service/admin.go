package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// AdminStore is the persistence surface of the admin reporting and
// maintenance operations.
type AdminStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindAttendee(ctx context.Context, term string) (model.Attendee, error)
	GetAttendee(ctx context.Context, id uint64) (model.Attendee, error)
	ListAttendees(ctx context.Context, f model.AttendeeFilter) ([]model.Attendee, error)
	SeatsByOwner(ctx context.Context, attendeeID uint64) ([]model.Seat, error)
	CountByOwner(ctx context.Context, attendeeID uint64) (int, error)
	ListBooked(ctx context.Context, paid, collected *bool) ([]model.Seat, error)
	DeleteAttendee(ctx context.Context, id uint64) error
}

// AdminService implements the administration page: attendee lookup and
// listings, booked-seat listings, manual paid/collected edits with a
// before/after report, and guarded attendee deletion. Flag mutations go
// through the lifecycle controller like every other state transition.
type AdminService struct {
	store     AdminStore
	lifecycle *Lifecycle
}

// NewAdminService wires the admin operations.
func NewAdminService(store AdminStore, lifecycle *Lifecycle) *AdminService {
	return &AdminService{store: store, lifecycle: lifecycle}
}

// AttendeeInfo resolves an id-or-name search term and returns the
// attendee's description followed by one line per owned seat.
func (a *AdminService) AttendeeInfo(ctx context.Context, term string) ([]string, error) {
	attendee, err := a.store.FindAttendee(ctx, term)
	if err != nil {
		return nil, err
	}
	return a.describeAttendee(ctx, attendee)
}

func (a *AdminService) describeAttendee(ctx context.Context, attendee model.Attendee) ([]string, error) {
	seats, err := a.store.SeatsByOwner(ctx, attendee.ID)
	if err != nil {
		return nil, err
	}
	lines := []string{attendee.Describe(len(seats))}
	for _, seat := range seats {
		lines = append(lines, seat.Describe())
	}
	return lines, nil
}

// ListAttendees renders the filtered attendee listing: each line carries
// the attendee description plus a grouped summary of its seats, and
// attendees without any seats are flagged.
func (a *AdminService) ListAttendees(ctx context.Context, f model.AttendeeFilter) ([]string, error) {
	attendees, err := a.store.ListAttendees(ctx, f)
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("Number of attendees found: %d", len(attendees))}
	for _, attendee := range attendees {
		seats, err := a.store.SeatsByOwner(ctx, attendee.ID)
		if err != nil {
			return nil, err
		}
		line := attendee.Describe(len(seats)) + ", seats: " + groupSeats(seats)
		if len(seats) == 0 {
			line += " (no seats booked)"
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ListBookedSeats renders every booked seat matching the optional paid
// and collected filters.
func (a *AdminService) ListBookedSeats(ctx context.Context, paid, collected *bool) ([]string, error) {
	seats, err := a.store.ListBooked(ctx, paid, collected)
	if err != nil {
		return nil, err
	}
	lines := []string{fmt.Sprintf("Number of tickets found: %d", len(seats))}
	for _, seat := range seats {
		lines = append(lines, seat.Describe())
	}
	return lines, nil
}

// SetPaid resolves the attendee by search term, applies the paid flag to
// attendee and seats through the lifecycle controller and returns a
// before/after report.
func (a *AdminService) SetPaid(ctx context.Context, term string, value bool) ([]string, error) {
	return a.editFlags(ctx, term, "paid", value, a.lifecycle.SetPaid)
}

// SetCollected is the staff pickup override; it applies regardless of
// payment state.
func (a *AdminService) SetCollected(ctx context.Context, term string, value bool) ([]string, error) {
	return a.editFlags(ctx, term, "picked up", value, a.lifecycle.SetCollected)
}

func (a *AdminService) editFlags(ctx context.Context, term, what string, value bool, apply func(context.Context, uint64, bool) error) ([]string, error) {
	attendee, err := a.store.FindAttendee(ctx, term)
	if err != nil {
		return nil, err
	}

	before, err := a.describeAttendee(ctx, attendee)
	if err != nil {
		return nil, err
	}
	if err := apply(ctx, attendee.ID, value); err != nil {
		return nil, err
	}
	after, err := a.AttendeeInfo(ctx, fmt.Sprintf("%d", attendee.ID))
	if err != nil {
		return nil, err
	}

	yesNo := "no"
	if value {
		yesNo = "yes"
	}
	lines := []string{fmt.Sprintf("Changed %s to %s for attendee %d", what, yesNo, attendee.ID)}
	lines = append(lines, after...)
	lines = append(lines, "", "Before the change:")
	lines = append(lines, before...)
	return lines, nil
}

// DeleteAttendee removes an attendee record, but only when no seat
// references it; the reference count and the delete run in one
// transaction so a concurrent booking cannot slip in between.
func (a *AdminService) DeleteAttendee(ctx context.Context, id uint64) ([]string, error) {
	attendee, err := a.store.GetAttendee(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := a.describeAttendee(ctx, attendee)
	if err != nil {
		return nil, err
	}

	err = a.store.WithTx(ctx, func(ctx context.Context) error {
		owned, err := a.store.CountByOwner(ctx, id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return model.ErrAttendeeHasSeats
		}
		return a.store.DeleteAttendee(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	lines := []string{fmt.Sprintf("Attendee %d deleted", id), "Record before deletion:"}
	return append(lines, info...), nil
}

// groupSeats summarizes seats as "(2 tickets for standing), table no. 4
// (Great Hall, 3 seats)" in ascending table order.
func groupSeats(seats []model.Seat) string {
	standing := 0
	perTable := map[uint]int{}
	for _, seat := range seats {
		if seat.Table == nil {
			standing++
		} else {
			perTable[*seat.Table]++
		}
	}
	parts := describeSelection(perTable, standing)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
