package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/standakozak/ticketsbooking/internal/model"
)

const attendeeColumns = "id, name, email, phone, pickup_place, paid, collected"

// CreateAttendee inserts a new attendee and returns its generated id.
func (s *Store) CreateAttendee(ctx context.Context, a model.Attendee) (uint64, error) {
	const q = `INSERT INTO attendees (name, email, phone, pickup_place, paid, collected)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.q(ctx).ExecContext(ctx, q, a.Name, a.Email, a.Phone, string(a.Pickup), a.Paid, a.Collected)
	if err != nil {
		return 0, fmt.Errorf("create attendee: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create attendee: %w", err)
	}
	return uint64(id), nil
}

// GetAttendee loads one attendee by id.
func (s *Store) GetAttendee(ctx context.Context, id uint64) (model.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE id = ?`
	a, err := scanAttendee(s.q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendee{}, model.ErrAttendeeNotFound
	}
	if err != nil {
		return model.Attendee{}, fmt.Errorf("get attendee: %w", err)
	}
	return a, nil
}

// FindAttendee resolves an admin search term: an all-digit term looks up
// by id, anything else matches as a case-insensitive name substring and
// returns the first hit.
func (s *Store) FindAttendee(ctx context.Context, term string) (model.Attendee, error) {
	if isDecimal(term) {
		var id uint64
		if _, err := fmt.Sscanf(term, "%d", &id); err == nil {
			return s.GetAttendee(ctx, id)
		}
	}
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE name LIKE ? ORDER BY id LIMIT 1`
	a, err := scanAttendee(s.q(ctx).QueryRowContext(ctx, query, "%"+term+"%"))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendee{}, model.ErrAttendeeNotFound
	}
	if err != nil {
		return model.Attendee{}, fmt.Errorf("find attendee: %w", err)
	}
	return a, nil
}

// ListAttendees returns attendees matching the filter, ordered by id.
// PickupOffice in the filter also matches the classroom pickups handled
// through the office.
func (s *Store) ListAttendees(ctx context.Context, f model.AttendeeFilter) ([]model.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE 1 = 1`
	args := []any{}
	if f.Paid != nil {
		query += ` AND paid = ?`
		args = append(args, *f.Paid)
	}
	if f.Collected != nil {
		query += ` AND collected = ?`
		args = append(args, *f.Collected)
	}
	switch f.Pickup {
	case "":
		// no pickup filter
	case model.PickupOffice:
		query += ` AND pickup_place IN (?, ?, ?)`
		args = append(args, string(model.PickupOffice), string(model.PickupHallEight), string(model.PickupHallFour))
	default:
		query += ` AND pickup_place = ?`
		args = append(args, string(f.Pickup))
	}
	query += ` ORDER BY id`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var out []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("list attendees: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return out, nil
}

// ListUnpaidAttendees returns every attendee with paid = false; the
// reconciliation engine scans only these so a re-run after a successful
// pass mutates nothing.
func (s *Store) ListUnpaidAttendees(ctx context.Context) ([]model.Attendee, error) {
	unpaid := false
	return s.ListAttendees(ctx, model.AttendeeFilter{Paid: &unpaid})
}

// SetAttendeePaid updates the aggregate paid flag. Callers pair this with
// SetPaidByOwner inside one transaction.
func (s *Store) SetAttendeePaid(ctx context.Context, id uint64, paid bool) error {
	_, err := s.q(ctx).ExecContext(ctx, `UPDATE attendees SET paid = ? WHERE id = ?`, paid, id)
	if err != nil {
		return fmt.Errorf("set attendee paid: %w", err)
	}
	return nil
}

// SetAttendeeCollected updates the aggregate collected flag.
func (s *Store) SetAttendeeCollected(ctx context.Context, id uint64, collected bool) error {
	_, err := s.q(ctx).ExecContext(ctx, `UPDATE attendees SET collected = ? WHERE id = ?`, collected, id)
	if err != nil {
		return fmt.Errorf("set attendee collected: %w", err)
	}
	return nil
}

// DeleteAttendee removes an attendee row. The service layer verifies the
// zero-seats precondition inside the same transaction.
func (s *Store) DeleteAttendee(ctx context.Context, id uint64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM attendees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete attendee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendee: %w", err)
	}
	if affected == 0 {
		return model.ErrAttendeeNotFound
	}
	return nil
}

func scanAttendee(r rowScanner) (model.Attendee, error) {
	var (
		a      model.Attendee
		pickup string
	)
	if err := r.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &pickup, &a.Paid, &a.Collected); err != nil {
		return model.Attendee{}, err
	}
	a.Pickup = model.ParsePickupPlace(pickup)
	return a, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
