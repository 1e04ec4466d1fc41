package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standakozak/ticketsbooking/internal/bank"
	"github.com/standakozak/ticketsbooking/internal/clock"
	"github.com/standakozak/ticketsbooking/internal/model"
)

type fakeFeed struct {
	txs []bank.Transaction
	err error
}

func (f *fakeFeed) Period(ctx context.Context, start, end time.Time) ([]bank.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.txs, nil
}

func payment(symbol uint64, amount int64) bank.Transaction {
	return bank.Transaction{
		Date:           testNow,
		Amount:         amount,
		Currency:       "CZK",
		VariableSymbol: strconv.FormatUint(symbol, 10),
	}
}

func newReconcileEnv(t *testing.T, feed Feed) (*fakeStore, *fakeNotifier, *Reconciler) {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	ledger := NewLedger()
	lifecycle := NewLifecycle(store, ledger, clock.NewFixed(testNow))
	return store, notifier, NewReconciler(store, lifecycle, feed, notifier, 300, "CZK")
}

func statusFor(t *testing.T, report []model.PaymentClassification, attendeeID uint64) model.PaymentStatus {
	t.Helper()
	for _, c := range report {
		if c.AttendeeID == attendeeID {
			return c.Status
		}
	}
	t.Fatalf("attendee %d missing from report", attendeeID)
	return ""
}

func TestReconcileClassification(t *testing.T) {
	feed := &fakeFeed{}
	store, notifier, rec := newReconcileEnv(t, feed)
	ctx := context.Background()

	// Each attendee holds two seats, so 600 is owed.
	exact, _ := bookAt(t, store, "exact", 2, testNow)
	over, _ := bookAt(t, store, "over", 2, testNow)
	under, _ := bookAt(t, store, "under", 2, testNow)
	silent, _ := bookAt(t, store, "silent", 2, testNow)

	feed.txs = []bank.Transaction{
		payment(exact, 600),
		payment(over, 900),
		payment(under, 300),
	}

	report, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	require.Len(t, report, 4)

	assert.Equal(t, model.PaymentExact, statusFor(t, report, exact))
	assert.Equal(t, model.PaymentOverpaid, statusFor(t, report, over))
	assert.Equal(t, model.PaymentUnderpaid, statusFor(t, report, under))
	assert.Equal(t, model.PaymentUnpaid, statusFor(t, report, silent))

	for id, wantPaid := range map[uint64]bool{exact: true, over: true, under: false, silent: false} {
		a, err := store.GetAttendee(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, wantPaid, a.Paid, "attendee %d", id)
		seats, err := store.SeatsByOwner(ctx, id)
		require.NoError(t, err)
		for _, seat := range seats {
			assert.Equal(t, wantPaid, seat.Paid)
		}
	}

	// Confirmation mail only for the two settled attendees.
	assert.Equal(t, []NotificationKind{MailPaymentConfirmed, MailPaymentConfirmed}, notifier.sentKinds())
}

func TestReconcileAccumulatesInstallments(t *testing.T) {
	feed := &fakeFeed{}
	store, _, rec := newReconcileEnv(t, feed)
	ctx := context.Background()

	attendeeID, _ := bookAt(t, store, "installments", 2, testNow)
	feed.txs = []bank.Transaction{
		payment(attendeeID, 300),
		payment(attendeeID, 300),
	}

	report, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentExact, statusFor(t, report, attendeeID))
}

func TestReconcileIgnoresForeignCurrencyAndBadSymbols(t *testing.T) {
	feed := &fakeFeed{}
	store, _, rec := newReconcileEnv(t, feed)
	ctx := context.Background()

	attendeeID, _ := bookAt(t, store, "foreign", 1, testNow)
	eur := payment(attendeeID, 300)
	eur.Currency = "EUR"
	noSymbol := bank.Transaction{Date: testNow, Amount: 300, Currency: "CZK", VariableSymbol: "not-a-number"}
	feed.txs = []bank.Transaction{eur, noSymbol}

	report, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentUnpaid, statusFor(t, report, attendeeID))
}

func TestReconcileIsIdempotent(t *testing.T) {
	feed := &fakeFeed{}
	store, notifier, rec := newReconcileEnv(t, feed)
	ctx := context.Background()

	attendeeID, _ := bookAt(t, store, "repeat", 1, testNow)
	feed.txs = []bank.Transaction{payment(attendeeID, 300)}

	_, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	// The attendee is paid now, so the second run skips it entirely.
	report, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.Len(t, notifier.sentKinds(), 1)
}

func TestReconcileFeedUnavailable(t *testing.T) {
	feed := &fakeFeed{err: model.ErrPaymentFeedUnavailable}
	store, _, rec := newReconcileEnv(t, feed)
	ctx := context.Background()

	attendeeID, _ := bookAt(t, store, "blocked", 1, testNow)

	_, err := rec.Reconcile(ctx, testNow.AddDate(0, 0, -7), testNow)
	assert.ErrorIs(t, err, model.ErrPaymentFeedUnavailable)

	a, err := store.GetAttendee(ctx, attendeeID)
	require.NoError(t, err)
	assert.False(t, a.Paid, "no partial classification when the feed is down")
}

func TestStatement(t *testing.T) {
	feed := &fakeFeed{txs: []bank.Transaction{
		{Date: testNow, Amount: 600, Currency: "CZK", VariableSymbol: "12", CounterpartyName: "Jana"},
		{Date: testNow, Amount: 300, Currency: "CZK", VariableSymbol: "13", CounterpartyName: "Petr"},
		{Date: testNow, Amount: -150, Currency: "CZK", CounterpartyName: "Printer shop", Message: "poster print"},
	}}
	_, _, rec := newReconcileEnv(t, feed)

	st, err := rec.Statement(context.Background(), testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)

	assert.Equal(t, int64(900), st.Income)
	assert.Equal(t, int64(-150), st.Expenses)
	assert.Equal(t, int64(750), st.Balance)
	require.Len(t, st.Lines, 4)
	assert.Equal(t, "Received 900 (3 tickets), expenses: -150, total balance: 750", st.Lines[0])
	assert.Contains(t, st.Lines[3], "message: poster print")
	assert.Contains(t, st.Lines[3], "VS: -")
}
