// Package queue defines the mail jobs exchanged over the message broker
// and the background worker that drains them.
package queue

// Queue names. Attendee mail goes to MailQueue; anything undeliverable
// is re-routed to AdminMailQueue together with the failure reason so the
// admin can follow up by hand.
const (
	MailQueue      = "tickets.mail"
	AdminMailQueue = "tickets.mail.admin"
)

// MailJob is one outbound mail, serialized as JSON. Jobs are published
// persistent so they survive a broker restart.
type MailJob struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	AttendeeID    uint64 `json:"attendee_id,omitempty"`
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	FailureReason string `json:"failure_reason,omitempty"`
	QueuedAt      string `json:"queued_at"`
}
