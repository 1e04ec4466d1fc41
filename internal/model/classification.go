package model

import "fmt"

// PaymentStatus classifies one unpaid attendee against the bank statement
// for a reconciliation period.
type PaymentStatus string

const (
	// PaymentUnpaid means no transaction carried the attendee's symbol.
	PaymentUnpaid PaymentStatus = "unpaid"
	// PaymentExact means the summed transactions match the owed amount.
	PaymentExact PaymentStatus = "exact"
	// PaymentOverpaid means more arrived than owed; the attendee is still
	// marked paid and the surplus is flagged for manual refund handling.
	PaymentOverpaid PaymentStatus = "overpaid"
	// PaymentUnderpaid means less arrived than owed; nothing is mutated
	// until the remainder arrives.
	PaymentUnderpaid PaymentStatus = "underpaid"
)

// PaymentClassification is one row of a reconciliation report.
type PaymentClassification struct {
	AttendeeID uint64
	Status     PaymentStatus
	Received   int64 // summed signed amounts matched to this attendee
	Expected   int64 // owned seat count times the price per seat
}

// Describe renders the classification line shown on the admin page.
func (c PaymentClassification) Describe() string {
	switch c.Status {
	case PaymentExact:
		return fmt.Sprintf("Attendee %d paid (%d).", c.AttendeeID, c.Expected)
	case PaymentOverpaid:
		return fmt.Sprintf("Attendee %d OVERPAID (%d received, %d expected).", c.AttendeeID, c.Received, c.Expected)
	case PaymentUnderpaid:
		return fmt.Sprintf("Attendee %d paid too little (%d received, %d expected).", c.AttendeeID, c.Received, c.Expected)
	default:
		return fmt.Sprintf("Attendee %d has not paid yet.", c.AttendeeID)
	}
}
