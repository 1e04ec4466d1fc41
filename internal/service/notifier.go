// Package service contains the booking engine: seat allocation, the
// booking lifecycle state machine, the expiry sweep with its reversible
// cancellation ledger, and payment reconciliation. Services talk to
// persistence through narrow store interfaces so they can be exercised
// against in-memory fakes.
package service

import "context"

// NotificationKind identifies the mail template a notification maps to.
type NotificationKind string

const (
	MailBookingSummary   NotificationKind = "booking_summary"
	MailPaymentConfirmed NotificationKind = "payment_confirmed"
	MailBookingCancelled NotificationKind = "booking_cancelled"
)

// Notification is one outbound message to an attendee. Content rendering
// is the transport's concern; the engine only supplies subject and body
// text.
type Notification struct {
	Kind       NotificationKind
	AttendeeID uint64
	Recipient  string
	Subject    string
	Body       string
}

// Notifier delivers notifications. Implementations must use bounded
// timeouts and must route undeliverable attendee mail, together with
// the failure reason, to the administrative channel before returning;
// the returned error only reports that the attendee delivery itself
// failed. Services treat Notifier errors as non-fatal: a failed send
// never rolls back an inventory mutation.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendAdmin(ctx context.Context, subject, body string) error
}
