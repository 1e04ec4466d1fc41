package service

import "sync"

// LedgerEntry records one released seat and the attendee it was taken
// from.
type LedgerEntry struct {
	AttendeeID uint64
	SeatID     uint64
}

// Ledger is the single-generation undo buffer for cancellations. It
// holds the ordered seat releases of the most recent sweep or manual
// cancellation only; each new batch replaces the previous generation in
// full, so exactly the latest batch is restorable. It is not durable
// history and does not survive a restart.
type Ledger struct {
	mu      sync.Mutex
	entries []LedgerEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Reset discards the current generation and starts a new, empty one.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// Record appends a released seat to the current generation.
func (l *Ledger) Record(attendeeID, seatID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LedgerEntry{AttendeeID: attendeeID, SeatID: seatID})
}

// Entries returns a copy of the current generation in release order.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Empty reports whether there is anything to restore.
func (l *Ledger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) == 0
}
