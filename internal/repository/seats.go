package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/standakozak/ticketsbooking/internal/model"
)

const seatColumns = "id, table_ref, owner_id, booked, paid, collected, booked_at"

// ClaimStanding locks the n lowest-id unbooked standing seats and returns
// their ids. Must be called inside WithTx: the FOR UPDATE row locks are
// what keeps two concurrent requests from being handed the same seat.
// Returns model.ErrInsufficientInventory when fewer than n are free.
func (s *Store) ClaimStanding(ctx context.Context, n int) ([]uint64, error) {
	const q = `SELECT id FROM seats WHERE table_ref IS NULL AND booked = 0 ORDER BY id LIMIT ? FOR UPDATE`
	return s.claim(ctx, q, n)
}

// ClaimTable locks the n lowest-id unbooked seats at the given table.
// Same contract as ClaimStanding.
func (s *Store) ClaimTable(ctx context.Context, table uint, n int) ([]uint64, error) {
	const q = `SELECT id FROM seats WHERE table_ref = ? AND booked = 0 ORDER BY id LIMIT ? FOR UPDATE`
	return s.claim(ctx, q, table, n)
}

func (s *Store) claim(ctx context.Context, query string, args ...any) ([]uint64, error) {
	n, _ := args[len(args)-1].(int)
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	}
	defer rows.Close()

	ids := make([]uint64, 0, n)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("claim seats: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim seats: %w", err)
	}
	if len(ids) < n {
		return nil, model.ErrInsufficientInventory
	}
	return ids, nil
}

// CommitBooked flips the claimed seats to booked with the given owner and
// timestamp. The update is conditional on booked = 0; if any seat slipped
// away between claim and commit the affected-row count comes up short and
// the call reports model.ErrStateConflict so the caller rolls back the
// whole request.
func (s *Store) CommitBooked(ctx context.Context, seatIDs []uint64, attendeeID uint64, bookedAt time.Time) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET booked = 1, owner_id = ?, booked_at = ? WHERE booked = 0 AND id IN (` +
		placeholders(len(seatIDs)) + `)`
	args := make([]any, 0, len(seatIDs)+2)
	args = append(args, attendeeID, bookedAt)
	for _, id := range seatIDs {
		args = append(args, id)
	}

	res, err := s.q(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	if affected != int64(len(seatIDs)) {
		return model.ErrStateConflict
	}
	return nil
}

// GetSeat loads one seat by id.
func (s *Store) GetSeat(ctx context.Context, id uint64) (model.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	seat, err := scanSeat(s.q(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Seat{}, model.ErrSeatNotFound
	}
	if err != nil {
		return model.Seat{}, fmt.Errorf("get seat: %w", err)
	}
	return seat, nil
}

// SeatsByOwner lists every seat owned by the attendee, lowest id first.
func (s *Store) SeatsByOwner(ctx context.Context, attendeeID uint64) ([]model.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE owner_id = ? ORDER BY id`
	return s.listSeats(ctx, query, attendeeID)
}

// CountByOwner counts the seats owned by the attendee.
func (s *Store) CountByOwner(ctx context.Context, attendeeID uint64) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE owner_id = ?`, attendeeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count seats by owner: %w", err)
	}
	return n, nil
}

// SetPaidByOwner sets the paid flag on all seats of the attendee. Run
// inside the same transaction as the attendee-level flag update.
func (s *Store) SetPaidByOwner(ctx context.Context, attendeeID uint64, paid bool) error {
	_, err := s.q(ctx).ExecContext(ctx, `UPDATE seats SET paid = ? WHERE owner_id = ?`, paid, attendeeID)
	if err != nil {
		return fmt.Errorf("set seats paid: %w", err)
	}
	return nil
}

// SetCollectedByOwner sets the collected flag on all seats of the attendee.
func (s *Store) SetCollectedByOwner(ctx context.Context, attendeeID uint64, collected bool) error {
	_, err := s.q(ctx).ExecContext(ctx, `UPDATE seats SET collected = ? WHERE owner_id = ?`, collected, attendeeID)
	if err != nil {
		return fmt.Errorf("set seats collected: %w", err)
	}
	return nil
}

// ClearBooking releases a seat: no owner, not booked, not paid. The
// collected flag stays untouched; the lifecycle rejects cancelling a
// paid or collected seat before this runs. booked_at also stays, it is
// only meaningful while booked, and a restored booking keeps its
// original timestamp and expires again.
func (s *Store) ClearBooking(ctx context.Context, seatID uint64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE seats SET owner_id = NULL, booked = 0, paid = 0 WHERE id = ?`, seatID)
	if err != nil {
		return fmt.Errorf("clear booking: %w", err)
	}
	return nil
}

// Rebook re-attaches a seat to its former owner after a sweep restore.
// Payment state is deliberately not touched. The update is idempotent so
// a repeated restore reproduces the same result.
func (s *Store) Rebook(ctx context.Context, seatID, attendeeID uint64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE seats SET booked = 1, owner_id = ? WHERE id = ?`, attendeeID, seatID)
	if err != nil {
		return fmt.Errorf("rebook seat: %w", err)
	}
	return nil
}

// ListExpired returns booked, unpaid, uncollected seats whose booking
// timestamp is older than the cutoff.
func (s *Store) ListExpired(ctx context.Context, before time.Time) ([]model.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats
		WHERE booked = 1 AND paid = 0 AND collected = 0 AND booked_at < ? ORDER BY id`
	return s.listSeats(ctx, query, before)
}

// ListBooked returns booked seats, optionally filtered by paid and
// collected state.
func (s *Store) ListBooked(ctx context.Context, paid, collected *bool) ([]model.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE booked = 1`
	args := []any{}
	if paid != nil {
		query += ` AND paid = ?`
		args = append(args, *paid)
	}
	if collected != nil {
		query += ` AND collected = ?`
		args = append(args, *collected)
	}
	query += ` ORDER BY id`
	return s.listSeats(ctx, query, args...)
}

// TableAvailability returns free (unbooked) seat counts per table,
// zero-filled across the whole table id space for the hall map.
func (s *Store) TableAvailability(ctx context.Context) (map[uint]int, error) {
	avail := make(map[uint]int, model.LastTable)
	for t := model.FirstTable; t <= model.LastTable; t++ {
		avail[t] = 0
	}

	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT table_ref, COUNT(*) FROM seats
		 WHERE table_ref IS NOT NULL AND booked = 0 GROUP BY table_ref`)
	if err != nil {
		return nil, fmt.Errorf("table availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table uint
		var free int
		if err := rows.Scan(&table, &free); err != nil {
			return nil, fmt.Errorf("table availability: %w", err)
		}
		avail[table] = free
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table availability: %w", err)
	}
	return avail, nil
}

// StandingAvailability counts free seats in the standing pool.
func (s *Store) StandingAvailability(ctx context.Context) (int, error) {
	var n int
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seats WHERE table_ref IS NULL AND booked = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("standing availability: %w", err)
	}
	return n, nil
}

func (s *Store) listSeats(ctx context.Context, query string, args ...any) ([]model.Seat, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("list seats: %w", err)
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(r rowScanner) (model.Seat, error) {
	var (
		seat     model.Seat
		tableRef sql.NullInt64
		ownerID  sql.NullInt64
		bookedAt sql.NullTime
	)
	if err := r.Scan(&seat.ID, &tableRef, &ownerID, &seat.Booked, &seat.Paid, &seat.Collected, &bookedAt); err != nil {
		return model.Seat{}, err
	}
	if tableRef.Valid {
		t := uint(tableRef.Int64)
		seat.Table = &t
	}
	if ownerID.Valid {
		o := uint64(ownerID.Int64)
		seat.OwnerID = &o
	}
	if bookedAt.Valid {
		t := bookedAt.Time
		seat.BookedAt = &t
	}
	return seat, nil
}
