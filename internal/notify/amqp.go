// Package notify implements the outbound mail transport on top of the
// message broker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/standakozak/ticketsbooking/internal/queue"
	"github.com/standakozak/ticketsbooking/internal/service"
)

const publishTimeout = 5 * time.Second

// AMQPNotifier publishes mail jobs to the broker. Attendee mail that
// cannot be published is re-routed to the admin queue together with the
// failure reason, and only then is the delivery error returned, so
// callers can treat the error as "the attendee did not get this mail"
// while the admin always has a copy to act on.
type AMQPNotifier struct {
	url        string
	adminEmail string
}

// NewAMQPNotifier returns a notifier publishing to the broker at url.
// Admin mail is addressed to adminEmail.
func NewAMQPNotifier(url, adminEmail string) *AMQPNotifier {
	return &AMQPNotifier{url: url, adminEmail: adminEmail}
}

// Send publishes an attendee notification to the mail queue. On failure
// it escalates the payload and the reason to the admin queue before
// returning the original delivery error.
func (n *AMQPNotifier) Send(ctx context.Context, note service.Notification) error {
	job := queue.MailJob{
		ID:         uuid.NewString(),
		Kind:       string(note.Kind),
		AttendeeID: note.AttendeeID,
		Recipient:  note.Recipient,
		Subject:    note.Subject,
		Body:       note.Body,
		QueuedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	err := n.publish(ctx, queue.MailQueue, job)
	if err == nil {
		return nil
	}

	job.ID = uuid.NewString()
	job.Recipient = n.adminEmail
	job.FailureReason = err.Error()
	if adminErr := n.publish(ctx, queue.AdminMailQueue, job); adminErr != nil {
		return fmt.Errorf("attendee delivery failed (%w); admin escalation also failed: %v", err, adminErr)
	}
	return fmt.Errorf("attendee delivery failed: %w", err)
}

// SendAdmin publishes a message straight to the admin queue.
func (n *AMQPNotifier) SendAdmin(ctx context.Context, subject, body string) error {
	job := queue.MailJob{
		ID:        uuid.NewString(),
		Kind:      "admin",
		Recipient: n.adminEmail,
		Subject:   subject,
		Body:      body,
		QueuedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return n.publish(ctx, queue.AdminMailQueue, job)
}

// publish opens a short-lived connection per message. Mail volume is a
// handful of messages per booking, so connection reuse is not worth the
// reconnect bookkeeping here; the consumer side keeps the long-lived
// connection instead.
func (n *AMQPNotifier) publish(ctx context.Context, queueName string, job queue.MailJob) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("broker dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return nil
}
