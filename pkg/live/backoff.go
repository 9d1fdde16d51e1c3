package live

import (
	"math/rand"
	"time"
)

// backoff produces reconnect delays: the base delay doubles after each
// failure up to the cap, with ±50% jitter so many clients dropped by the
// same outage do not reconnect in lockstep. Reset after a successful
// connect returns it to the base delay.
type backoff struct {
	base time.Duration
	cap  time.Duration
	next time.Duration
}

func newBackoff(base, cap time.Duration) *backoff {
	return &backoff{base: base, cap: cap, next: base}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the schedule.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.cap {
		b.next = b.cap
	}
	// Jitter: uniform in [d/2, 3d/2).
	return d/2 + time.Duration(rand.Int63n(int64(d))) //nolint:gosec // timing jitter, not crypto
}

// Reset returns the schedule to the base delay.
func (b *backoff) Reset() {
	b.next = b.base
}
