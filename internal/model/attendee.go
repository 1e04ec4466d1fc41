package model

import "fmt"

// PickupPlace is the closed set of locations where an attendee can pick
// up printed tickets.
type PickupPlace string

const (
	PickupOffice      PickupPlace = "office"      // the school's office
	PickupHallEight   PickupPlace = "hall_eight"  // classroom 8.C
	PickupHallFour    PickupPlace = "hall_four"   // classroom 4.A
	PickupIdeon       PickupPlace = "ideon"       // the off-site IDEON venue
	PickupUnspecified PickupPlace = "unspecified"
)

// ParsePickupPlace maps a form value to a PickupPlace, falling back to
// PickupUnspecified for anything unknown rather than failing the booking.
func ParsePickupPlace(s string) PickupPlace {
	switch PickupPlace(s) {
	case PickupOffice, PickupHallEight, PickupHallFour, PickupIdeon:
		return PickupPlace(s)
	default:
		return PickupUnspecified
	}
}

// Describe renders the pickup place for reports and mails.
func (p PickupPlace) Describe() string {
	switch p {
	case PickupOffice:
		return "in the school's office"
	case PickupHallEight:
		return "at classroom 8.C"
	case PickupHallFour:
		return "at classroom 4.A"
	case PickupIdeon:
		return "at IDEON"
	default:
		return "pickup place not set"
	}
}

// Attendee is a registered buyer. The Paid and Collected flags are
// aggregate conveniences kept in sync with the attendee's seats; they are
// only ever set together with the seat-level flags inside one transaction
// and are never a source of truth on their own.
type Attendee struct {
	ID        uint64      // attendees.id
	Name      string      // attendees.name
	Email     string      // attendees.email
	Phone     string      // attendees.phone
	Pickup    PickupPlace // attendees.pickup_place
	Paid      bool        // attendees.paid
	Collected bool        // attendees.collected
}

// AttendeeFilter narrows attendee listings. Nil pointers mean "any";
// an empty Pickup disables the pickup-place filter.
type AttendeeFilter struct {
	Paid      *bool
	Collected *bool
	Pickup    PickupPlace
}

// Describe returns the admin-report line for an attendee, including the
// number of seats it currently owns.
func (a Attendee) Describe(seatCount int) string {
	paid := "not paid"
	if a.Paid {
		paid = "paid"
	}
	collected := "not picked up"
	if a.Collected {
		collected = "picked up"
	}
	return fmt.Sprintf("ID %d, name: %s, picking up %s, %s, %s, number of tickets: %d",
		a.ID, a.Name, a.Pickup.Describe(), paid, collected, seatCount)
}
