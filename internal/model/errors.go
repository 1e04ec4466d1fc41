// Package model holds the domain types of the ticket booking system:
// seats, attendees, hall geometry and the error taxonomy shared by the
// service and repository layers.
package model

import "errors"

// ErrInsufficientInventory is returned when a claim asks for more seats
// than are currently unbooked for the requested selector (a table or the
// standing pool). The caller may retry with a smaller request.
var ErrInsufficientInventory = errors.New("not enough available seats")

// ErrTooManyTickets is returned when a single booking request exceeds the
// configured per-request ticket ceiling. Checked before any row is locked.
var ErrTooManyTickets = errors.New("too many tickets requested")

// ErrNoSeatsRequested is returned when a booking request asks for zero
// seats, or supplies an empty table selection.
var ErrNoSeatsRequested = errors.New("no seats requested")

// ErrStateConflict signals that a seat is not in the state a transition
// requires: it changed between claim and commit, or a cancellation hit
// a paid or collected seat. The enclosing transaction must be rolled
// back in full; nothing may be partially applied.
var ErrStateConflict = errors.New("seat state conflict")

// ErrAttendeeNotFound is returned when no attendee matches the given id
// or name query.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrSeatNotFound is returned when a seat id does not exist, or does not
// match the expected owner for an owner-scoped operation.
var ErrSeatNotFound = errors.New("seat not found")

// ErrAttendeeHasSeats blocks deletion of an attendee that still owns
// seats. Attendees are deletable only once no seat references them.
var ErrAttendeeHasSeats = errors.New("attendee still owns seats")

// ErrPaymentFeedUnavailable is returned when the bank statement feed
// cannot be reached or rejects the request. Reconciliation aborts cleanly
// with no partial classification; there is no retry inside the core.
var ErrPaymentFeedUnavailable = errors.New("payment feed unavailable")
