package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/standakozak/ticketsbooking/internal/bank"
	"github.com/standakozak/ticketsbooking/internal/model"
)

// Feed is the external payment-statement collaborator. The returned
// slice is consumed once per reconciliation run; errors surface as
// model.ErrPaymentFeedUnavailable with no retry here.
type Feed interface {
	Period(ctx context.Context, start, end time.Time) ([]bank.Transaction, error)
}

// ReconcileStore is the persistence surface of the reconciliation
// engine. It only reads; mutations go through the lifecycle controller.
type ReconcileStore interface {
	ListUnpaidAttendees(ctx context.Context) ([]model.Attendee, error)
	CountByOwner(ctx context.Context, attendeeID uint64) (int, error)
}

// Reconciler matches bank transactions to outstanding attendees and
// drives paid-state transitions. Only unpaid attendees are scanned, so
// re-running over the same period mutates nothing the second time.
type Reconciler struct {
	store     ReconcileStore
	lifecycle *Lifecycle
	feed      Feed
	notifier  Notifier

	pricePerSeat int64
	currency     string
}

// NewReconciler wires the engine. currency is the settlement currency;
// transactions in anything else are ignored.
func NewReconciler(store ReconcileStore, lifecycle *Lifecycle, feed Feed, notifier Notifier, pricePerSeat int64, currency string) *Reconciler {
	return &Reconciler{
		store:        store,
		lifecycle:    lifecycle,
		feed:         feed,
		notifier:     notifier,
		pricePerSeat: pricePerSeat,
		currency:     currency,
	}
}

// Reconcile fetches the statement for the period, sums signed amounts
// per attendee symbol (installments and duplicated symbol noise
// accumulate), and classifies every unpaid attendee against the amount
// owed. Exact and overpaid attendees are marked paid, attendee and
// seats in one transaction, and get a confirmation mail; underpaid ones
// are flagged and left untouched until the remainder arrives.
func (r *Reconciler) Reconcile(ctx context.Context, start, end time.Time) ([]model.PaymentClassification, error) {
	txs, err := r.feed.Period(ctx, start, end)
	if err != nil {
		// Fail fast: no partial classification when the feed is down.
		return nil, err
	}

	sums := make(map[uint64]int64)
	for _, t := range txs {
		if t.Currency != r.currency || t.VariableSymbol == "" {
			continue
		}
		symbol, err := strconv.ParseUint(t.VariableSymbol, 10, 64)
		if err != nil {
			continue
		}
		sums[symbol] += t.Amount
	}

	unpaid, err := r.store.ListUnpaidAttendees(ctx)
	if err != nil {
		return nil, err
	}

	var report []model.PaymentClassification
	for _, attendee := range unpaid {
		seats, err := r.store.CountByOwner(ctx, attendee.ID)
		if err != nil {
			return report, err
		}
		expected := int64(seats) * r.pricePerSeat

		received, found := sums[attendee.ID]
		c := model.PaymentClassification{AttendeeID: attendee.ID, Received: received, Expected: expected}
		switch {
		case !found:
			c.Status = model.PaymentUnpaid
		case received == expected:
			c.Status = model.PaymentExact
		case received > expected:
			c.Status = model.PaymentOverpaid
		default:
			c.Status = model.PaymentUnderpaid
		}
		report = append(report, c)

		if c.Status == model.PaymentExact || c.Status == model.PaymentOverpaid {
			if err := r.lifecycle.SetPaid(ctx, attendee.ID, true); err != nil {
				return report, err
			}
			r.confirmPayment(ctx, attendee, received)
		}
	}
	return report, nil
}

func (r *Reconciler) confirmPayment(ctx context.Context, attendee model.Attendee, received int64) {
	err := r.notifier.Send(ctx, Notification{
		Kind:       MailPaymentConfirmed,
		AttendeeID: attendee.ID,
		Recipient:  attendee.Email,
		Subject:    "Your prom tickets were paid for",
		Body:       fmt.Sprintf("Hello %s,\n\nwe received your payment of %d %s. See you at the prom!", attendee.Name, received, r.currency),
	})
	if err != nil {
		log.Printf("reconcile: payment mail for attendee %d not delivered: %v", attendee.ID, err)
	}
}

// Statement is the raw period view of the settlement account shown on
// the admin page.
type Statement struct {
	Income   int64
	Expenses int64
	Balance  int64
	Lines    []string
}

// Statement lists the period's transactions with income, expense and
// balance totals, including the rough ticket-count equivalent of the
// income.
func (r *Reconciler) Statement(ctx context.Context, start, end time.Time) (Statement, error) {
	txs, err := r.feed.Period(ctx, start, end)
	if err != nil {
		return Statement{}, err
	}

	var st Statement
	for _, t := range txs {
		if t.Amount > 0 {
			st.Income += t.Amount
		} else {
			st.Expenses += t.Amount
		}
		line := fmt.Sprintf("VS: %s, name: %s, amount: %d %s, account: %s, date: %s",
			orDash(t.VariableSymbol), t.CounterpartyName, t.Amount, t.Currency,
			t.CounterpartyAccount, t.Date.Format("2. 1. 2006"))
		if t.Message != "" {
			line += ", message: " + t.Message
		}
		st.Lines = append(st.Lines, line)
	}
	st.Balance = st.Income + st.Expenses

	summary := fmt.Sprintf("Received %d (%d tickets), expenses: %d, total balance: %d",
		st.Income, st.Income/r.pricePerSeat, st.Expenses, st.Balance)
	st.Lines = append([]string{summary}, st.Lines...)
	return st, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
