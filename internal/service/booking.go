package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// BookingStore is the persistence surface of the allocator.
type BookingStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ClaimStanding(ctx context.Context, n int) ([]uint64, error)
	ClaimTable(ctx context.Context, table uint, n int) ([]uint64, error)
	CreateAttendee(ctx context.Context, a model.Attendee) (uint64, error)
	GetAttendee(ctx context.Context, id uint64) (model.Attendee, error)
	TableAvailability(ctx context.Context) (map[uint]int, error)
	StandingAvailability(ctx context.Context) (int, error)
}

// AttendeeDetails carries the registration form of a booking request.
type AttendeeDetails struct {
	Name   string
	Email  string
	Phone  string
	Pickup model.PickupPlace
}

// BookingResult summarizes a successful booking.
type BookingResult struct {
	AttendeeID uint64
	SeatIDs    []uint64
	Tickets    int
	TotalPrice int64
	Details    []string // per-selection description lines
	MailSent   bool
}

// BookingService registers attendees and claims seats for them. Claim
// and commit run in one transaction per request: the claim locks the
// candidate rows, the lifecycle controller commits the booked state, and
// any failure rolls back the entire request so no seat is ever left in a
// claimed-but-uncommitted state.
type BookingService struct {
	store     BookingStore
	lifecycle *Lifecycle
	notifier  Notifier

	ticketLimit   int
	pricePerSeat  int64
	accountNumber string
}

// NewBookingService wires the allocator. ticketLimit caps a single
// request; pricePerSeat and accountNumber feed the summary mail.
func NewBookingService(store BookingStore, lifecycle *Lifecycle, notifier Notifier, ticketLimit int, pricePerSeat int64, accountNumber string) *BookingService {
	return &BookingService{
		store:         store,
		lifecycle:     lifecycle,
		notifier:      notifier,
		ticketLimit:   ticketLimit,
		pricePerSeat:  pricePerSeat,
		accountNumber: accountNumber,
	}
}

// BookStanding registers the attendee and claims n standing tickets.
func (s *BookingService) BookStanding(ctx context.Context, who AttendeeDetails, n int) (BookingResult, error) {
	if n <= 0 {
		return BookingResult{}, model.ErrNoSeatsRequested
	}
	return s.book(ctx, who, nil, n)
}

// BookTables registers the attendee and claims seats per table, as
// picked on the hall map. The request is all-or-nothing across every
// requested table.
func (s *BookingService) BookTables(ctx context.Context, who AttendeeDetails, tables map[uint]int) (BookingResult, error) {
	if len(tables) == 0 {
		return BookingResult{}, model.ErrNoSeatsRequested
	}
	for table, count := range tables {
		if count <= 0 {
			return BookingResult{}, model.ErrNoSeatsRequested
		}
		if !model.ValidTable(table) {
			// Outside the venue's table space there is nothing to claim.
			return BookingResult{}, model.ErrInsufficientInventory
		}
	}
	return s.book(ctx, who, tables, 0)
}

func (s *BookingService) book(ctx context.Context, who AttendeeDetails, tables map[uint]int, standing int) (BookingResult, error) {
	total := standing
	for _, count := range tables {
		total += count
	}
	// The ceiling is checked before any row is locked; oversized requests
	// are rejected without touching the inventory.
	if total > s.ticketLimit {
		return BookingResult{}, model.ErrTooManyTickets
	}

	// The attendee record is created outside the claim transaction, as a
	// registration in its own right. If the claim below fails the
	// attendee simply owns no seats and stays deletable.
	attendeeID, err := s.store.CreateAttendee(ctx, model.Attendee{
		Name:   who.Name,
		Email:  who.Email,
		Phone:  who.Phone,
		Pickup: who.Pickup,
	})
	if err != nil {
		return BookingResult{}, err
	}

	// Tables are claimed in ascending order so concurrent multi-table
	// requests acquire row locks in a consistent order.
	tableIDs := make([]uint, 0, len(tables))
	for table := range tables {
		tableIDs = append(tableIDs, table)
	}
	sort.Slice(tableIDs, func(i, j int) bool { return tableIDs[i] < tableIDs[j] })

	var seatIDs []uint64
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		seatIDs = seatIDs[:0]
		if standing > 0 {
			ids, err := s.store.ClaimStanding(ctx, standing)
			if err != nil {
				return err
			}
			seatIDs = append(seatIDs, ids...)
		}
		for _, table := range tableIDs {
			ids, err := s.store.ClaimTable(ctx, table, tables[table])
			if err != nil {
				return err
			}
			seatIDs = append(seatIDs, ids...)
		}
		return s.lifecycle.Commit(ctx, seatIDs, attendeeID)
	})
	if err != nil {
		return BookingResult{}, err
	}

	result := BookingResult{
		AttendeeID: attendeeID,
		SeatIDs:    seatIDs,
		Tickets:    total,
		TotalPrice: int64(total) * s.pricePerSeat,
		Details:    describeSelection(tables, standing),
	}
	result.MailSent = s.sendSummary(ctx, attendeeID, who, result) == nil
	return result, nil
}

// Availability reports free seats per table plus the free standing pool,
// for the hall map.
func (s *BookingService) Availability(ctx context.Context) (map[uint]int, int, error) {
	tables, err := s.store.TableAvailability(ctx)
	if err != nil {
		return nil, 0, err
	}
	standing, err := s.store.StandingAvailability(ctx)
	if err != nil {
		return nil, 0, err
	}
	return tables, standing, nil
}

func (s *BookingService) sendSummary(ctx context.Context, attendeeID uint64, who AttendeeDetails, r BookingResult) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nyour booking is confirmed: %s.\nTickets: %d, total price: %d CZK.\nPlease pay to account %s with variable symbol %d.",
		who.Name, strings.Join(r.Details, ", "), r.Tickets, r.TotalPrice, s.accountNumber, attendeeID)
	err := s.notifier.Send(ctx, Notification{
		Kind:       MailBookingSummary,
		AttendeeID: attendeeID,
		Recipient:  who.Email,
		Subject:    "Confirmation of your prom ticket booking",
		Body:       body,
	})
	if err != nil {
		// Delivery problems never unwind the booking itself.
		log.Printf("booking: summary mail for attendee %d not delivered: %v", attendeeID, err)
	}
	return err
}

// describeSelection renders the booked selection the way the summary
// mail and admin reports show it, ascending by table.
func describeSelection(tables map[uint]int, standing int) []string {
	ids := make([]uint, 0, len(tables))
	for table := range tables {
		ids = append(ids, table)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var lines []string
	if standing > 0 {
		lines = append(lines, fmt.Sprintf("(%d tickets for standing)", standing))
	}
	for _, table := range ids {
		lines = append(lines, fmt.Sprintf("table no. %d (%s, %d seats)",
			model.DisplayTable(table), model.HallForTable(table), tables[table]))
	}
	return lines
}
