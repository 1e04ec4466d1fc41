// Package clock abstracts time so that expiry and booking timestamps can
// be pinned in tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time { return f.t }

// NewFixed returns a Clock that always reports t.
func NewFixed(t time.Time) Clock { return fixedClock{t: t} }
