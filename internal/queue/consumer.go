package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartMailConsumers connects to the broker and drains both mail queues
// into logs/mail.log, one line per job. Delivery to an actual SMTP relay
// is an operational concern outside this service; the worker's job is to
// get mail out of the booking request path. Each consumer runs a
// reconnect loop with backoff and keeps going after processing errors,
// rejecting the offending message without requeueing it.
func StartMailConsumers(url string) {
	go consumeForever(url, MailQueue)
	go consumeForever(url, AdminMailQueue)
}

func consumeForever(url, queueName string) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mail-consumer[%s]: dial failed: %v; retrying in %s", queueName, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, queueName); err != nil {
			log.Printf("mail-consumer[%s]: consume loop ended: %v; reconnecting", queueName, err)
		}
		_ = conn.Close()
		time.Sleep(2 * time.Second)
	}
}

func consumeLoop(conn *amqp.Connection, queueName string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("mail-consumer[%s]: set QoS failed: %v", queueName, err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleJob(queueName, d.Body); err != nil {
			log.Printf("mail-consumer[%s]: handle job failed: %v", queueName, err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleJob(queueName string, body []byte) error {
	var job MailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "mail.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] queue=%s id=%s kind=%s attendee=%d to=%q subject=%q",
		job.QueuedAt, queueName, job.ID, job.Kind, job.AttendeeID, job.Recipient, job.Subject)
	if job.FailureReason != "" {
		line += fmt.Sprintf(" failure=%q", job.FailureReason)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
