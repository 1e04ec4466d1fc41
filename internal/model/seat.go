package model

import (
	"fmt"
	"time"
)

// Seat is one sellable ticket slot, the atomic allocation unit. Seats at
// numbered tables carry a table reference; standing tickets are ordinary
// rows with a nil Table so the same claim-and-commit discipline applies
// to both.
//
// Invariants enforced by the lifecycle layer:
//   - Booked == false implies OwnerID == nil and Paid == false.
//   - Collected == true implies Booked == true.
//   - BookedAt is meaningful only while Booked is true.
type Seat struct {
	ID        uint64     // seats.id
	Table     *uint      // seats.table_ref, nil for the standing pool
	OwnerID   *uint64    // seats.owner_id, nil while unbooked
	Booked    bool       // seats.booked
	Paid      bool       // seats.paid
	Collected bool       // seats.collected
	BookedAt  *time.Time // seats.booked_at, nil while unbooked
}

// Standing reports whether the seat belongs to the standing pool.
func (s Seat) Standing() bool { return s.Table == nil }

// Placement renders the seat's position: "standing" or a table label.
func (s Seat) Placement() string {
	if s.Table == nil {
		return "standing"
	}
	return TableLabel(*s.Table)
}

// Describe returns the one-line human-readable snapshot used in admin
// reports and pre-cancellation audit output.
func (s Seat) Describe() string {
	owner := "none"
	if s.OwnerID != nil {
		owner = fmt.Sprintf("%d", *s.OwnerID)
	}
	booked := "never"
	if s.BookedAt != nil {
		booked = s.BookedAt.Format("2006-01-02 15:04:05")
	}
	paid := "not paid"
	if s.Paid {
		paid = "paid"
	}
	collected := "not picked up"
	if s.Collected {
		collected = "picked up"
	}
	return fmt.Sprintf("ID: %d, attendee: %s, time: %s, %s, %s, %s",
		s.ID, owner, booked, s.Placement(), paid, collected)
}
