package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// fakeStore is an in-memory stand-in for the SQL store. Transactions
// take a process-wide lock and roll back by snapshot, which mirrors the
// serialization the row locks provide in production closely enough for
// the services under test. Nested WithTx calls join the outer
// transaction the way the SQL store joins via context.
type fakeStore struct {
	mu        sync.Mutex
	seats     map[uint64]model.Seat
	attendees map[uint64]model.Attendee
	nextSeat  uint64
	nextID    uint64
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats:     map[uint64]model.Seat{},
		attendees: map[uint64]model.Attendee{},
	}
}

// seedTable adds n free seats at the given table.
func (f *fakeStore) seedTable(table uint, n int) {
	t := table
	for i := 0; i < n; i++ {
		f.nextSeat++
		f.seats[f.nextSeat] = model.Seat{ID: f.nextSeat, Table: &t}
	}
}

// seedStanding adds n free standing seats.
func (f *fakeStore) seedStanding(n int) {
	for i := 0; i < n; i++ {
		f.nextSeat++
		f.seats[f.nextSeat] = model.Seat{ID: f.nextSeat}
	}
}

func (f *fakeStore) inTx(ctx context.Context) bool {
	return ctx.Value(fakeTxKey{}) != nil
}

func (f *fakeStore) lock(ctx context.Context) func() {
	if f.inTx(ctx) {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.inTx(ctx) {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	seatSnap := make(map[uint64]model.Seat, len(f.seats))
	for id, s := range f.seats {
		seatSnap[id] = s
	}
	attSnap := make(map[uint64]model.Attendee, len(f.attendees))
	for id, a := range f.attendees {
		attSnap[id] = a
	}

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.seats = seatSnap
		f.attendees = attSnap
		return err
	}
	return nil
}

func (f *fakeStore) sortedSeatIDs() []uint64 {
	ids := make([]uint64, 0, len(f.seats))
	for id := range f.seats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeStore) ClaimStanding(ctx context.Context, n int) ([]uint64, error) {
	defer f.lock(ctx)()
	var out []uint64
	for _, id := range f.sortedSeatIDs() {
		s := f.seats[id]
		if s.Table == nil && !s.Booked {
			out = append(out, id)
			if len(out) == n {
				return out, nil
			}
		}
	}
	return nil, model.ErrInsufficientInventory
}

func (f *fakeStore) ClaimTable(ctx context.Context, table uint, n int) ([]uint64, error) {
	defer f.lock(ctx)()
	var out []uint64
	for _, id := range f.sortedSeatIDs() {
		s := f.seats[id]
		if s.Table != nil && *s.Table == table && !s.Booked {
			out = append(out, id)
			if len(out) == n {
				return out, nil
			}
		}
	}
	return nil, model.ErrInsufficientInventory
}

func (f *fakeStore) CommitBooked(ctx context.Context, seatIDs []uint64, attendeeID uint64, bookedAt time.Time) error {
	defer f.lock(ctx)()
	for _, id := range seatIDs {
		s, ok := f.seats[id]
		if !ok || s.Booked {
			return model.ErrStateConflict
		}
	}
	owner := attendeeID
	at := bookedAt
	for _, id := range seatIDs {
		s := f.seats[id]
		s.Booked = true
		s.OwnerID = &owner
		s.BookedAt = &at
		f.seats[id] = s
	}
	return nil
}

func (f *fakeStore) CreateAttendee(ctx context.Context, a model.Attendee) (uint64, error) {
	defer f.lock(ctx)()
	f.nextID++
	a.ID = f.nextID
	f.attendees[a.ID] = a
	return a.ID, nil
}

func (f *fakeStore) GetAttendee(ctx context.Context, id uint64) (model.Attendee, error) {
	defer f.lock(ctx)()
	a, ok := f.attendees[id]
	if !ok {
		return model.Attendee{}, model.ErrAttendeeNotFound
	}
	return a, nil
}

func (f *fakeStore) GetSeat(ctx context.Context, id uint64) (model.Seat, error) {
	defer f.lock(ctx)()
	s, ok := f.seats[id]
	if !ok {
		return model.Seat{}, model.ErrSeatNotFound
	}
	return s, nil
}

func (f *fakeStore) SetAttendeePaid(ctx context.Context, id uint64, paid bool) error {
	defer f.lock(ctx)()
	a, ok := f.attendees[id]
	if !ok {
		return model.ErrAttendeeNotFound
	}
	a.Paid = paid
	f.attendees[id] = a
	return nil
}

func (f *fakeStore) SetPaidByOwner(ctx context.Context, attendeeID uint64, paid bool) error {
	defer f.lock(ctx)()
	for id, s := range f.seats {
		if s.OwnerID != nil && *s.OwnerID == attendeeID {
			s.Paid = paid
			f.seats[id] = s
		}
	}
	return nil
}

func (f *fakeStore) SetAttendeeCollected(ctx context.Context, id uint64, collected bool) error {
	defer f.lock(ctx)()
	a, ok := f.attendees[id]
	if !ok {
		return model.ErrAttendeeNotFound
	}
	a.Collected = collected
	f.attendees[id] = a
	return nil
}

func (f *fakeStore) SetCollectedByOwner(ctx context.Context, attendeeID uint64, collected bool) error {
	defer f.lock(ctx)()
	for id, s := range f.seats {
		if s.OwnerID != nil && *s.OwnerID == attendeeID {
			s.Collected = collected
			f.seats[id] = s
		}
	}
	return nil
}

func (f *fakeStore) ClearBooking(ctx context.Context, seatID uint64) error {
	defer f.lock(ctx)()
	s, ok := f.seats[seatID]
	if !ok {
		return model.ErrSeatNotFound
	}
	s.OwnerID = nil
	s.Booked = false
	s.Paid = false
	f.seats[seatID] = s
	return nil
}

func (f *fakeStore) Rebook(ctx context.Context, seatID, attendeeID uint64) error {
	defer f.lock(ctx)()
	s, ok := f.seats[seatID]
	if !ok {
		return model.ErrSeatNotFound
	}
	owner := attendeeID
	s.Booked = true
	s.OwnerID = &owner
	f.seats[seatID] = s
	return nil
}

func (f *fakeStore) ListExpired(ctx context.Context, before time.Time) ([]model.Seat, error) {
	defer f.lock(ctx)()
	var out []model.Seat
	for _, id := range f.sortedSeatIDs() {
		s := f.seats[id]
		if s.Booked && !s.Paid && !s.Collected && s.BookedAt != nil && s.BookedAt.Before(before) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBooked(ctx context.Context, paid, collected *bool) ([]model.Seat, error) {
	defer f.lock(ctx)()
	var out []model.Seat
	for _, id := range f.sortedSeatIDs() {
		s := f.seats[id]
		if !s.Booked {
			continue
		}
		if paid != nil && s.Paid != *paid {
			continue
		}
		if collected != nil && s.Collected != *collected {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) ListUnpaidAttendees(ctx context.Context) ([]model.Attendee, error) {
	defer f.lock(ctx)()
	var out []model.Attendee
	for _, a := range f.attendees {
		if !a.Paid {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListAttendees(ctx context.Context, filter model.AttendeeFilter) ([]model.Attendee, error) {
	defer f.lock(ctx)()
	var out []model.Attendee
	for _, a := range f.attendees {
		if filter.Paid != nil && a.Paid != *filter.Paid {
			continue
		}
		if filter.Collected != nil && a.Collected != *filter.Collected {
			continue
		}
		if filter.Pickup != "" && filter.Pickup != model.PickupUnspecified && a.Pickup != filter.Pickup {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FindAttendee(ctx context.Context, term string) (model.Attendee, error) {
	defer f.lock(ctx)()
	if id, err := strconv.ParseUint(term, 10, 64); err == nil {
		if a, ok := f.attendees[id]; ok {
			return a, nil
		}
		return model.Attendee{}, model.ErrAttendeeNotFound
	}
	for _, a := range f.attendees {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(term)) {
			return a, nil
		}
	}
	return model.Attendee{}, model.ErrAttendeeNotFound
}

func (f *fakeStore) SeatsByOwner(ctx context.Context, attendeeID uint64) ([]model.Seat, error) {
	defer f.lock(ctx)()
	var out []model.Seat
	for _, id := range f.sortedSeatIDs() {
		s := f.seats[id]
		if s.OwnerID != nil && *s.OwnerID == attendeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) CountByOwner(ctx context.Context, attendeeID uint64) (int, error) {
	seats, err := f.SeatsByOwner(ctx, attendeeID)
	if err != nil {
		return 0, err
	}
	return len(seats), nil
}

func (f *fakeStore) DeleteAttendee(ctx context.Context, id uint64) error {
	defer f.lock(ctx)()
	if _, ok := f.attendees[id]; !ok {
		return model.ErrAttendeeNotFound
	}
	delete(f.attendees, id)
	return nil
}

func (f *fakeStore) TableAvailability(ctx context.Context) (map[uint]int, error) {
	defer f.lock(ctx)()
	out := map[uint]int{}
	for _, s := range f.seats {
		if s.Table != nil && !s.Booked {
			out[*s.Table]++
		}
	}
	return out, nil
}

func (f *fakeStore) StandingAvailability(ctx context.Context) (int, error) {
	defer f.lock(ctx)()
	n := 0
	for _, s := range f.seats {
		if s.Table == nil && !s.Booked {
			n++
		}
	}
	return n, nil
}

// fakeNotifier records every send and can be told to fail attendee
// deliveries.
type fakeNotifier struct {
	mu         sync.Mutex
	sent       []Notification
	adminSent  []string
	failSends  bool
	failAdmins bool
}

func (n *fakeNotifier) Send(ctx context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failSends {
		n.adminSent = append(n.adminSent, note.Subject)
		return errors.New("delivery failed")
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *fakeNotifier) SendAdmin(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAdmins {
		return errors.New("admin delivery failed")
	}
	n.adminSent = append(n.adminSent, subject)
	return nil
}

func (n *fakeNotifier) sentKinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NotificationKind, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}
